package channels

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/feedgram/feedgram/app/database"
)

// Seed is one channel definition from a YAML file in the channels directory.
type Seed struct {
	Name  string `yaml:"name"`
	URL   string `yaml:"url"`
	Owner string `yaml:"owner"`
}

type Loader struct {
	channelsDir string
	channelRepo database.ChannelRepository
}

func NewLoader(channelsDir string, channelRepo database.ChannelRepository) *Loader {
	return &Loader{
		channelsDir: channelsDir,
		channelRepo: channelRepo,
	}
}

// Run loads every *.yml file in the channels directory and upserts its
// channel. It returns the channels that were newly registered so the caller
// can enqueue a backfill for each. A missing directory is not an error.
func (l *Loader) Run() ([]database.Channel, error) {
	if _, err := os.Stat(l.channelsDir); os.IsNotExist(err) {
		return nil, nil
	}

	files, err := filepath.Glob(filepath.Join(l.channelsDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YML files: %w", err)
	}

	var created []database.Channel
	for _, file := range files {
		seed, err := l.parseSeed(file)
		if err != nil {
			return nil, fmt.Errorf("error loading %s: %w", file, err)
		}

		id, isNew, err := l.channelRepo.UpsertChannel(seed.Owner, seed.Name, seed.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to register channel %s: %w", seed.Name, err)
		}

		slog.Debug("Channel definition loaded", "channel", seed.Name, "url", seed.URL, "new", isNew)

		if isNew {
			created = append(created, database.Channel{
				ID:      id,
				OwnerID: seed.Owner,
				Name:    seed.Name,
				URL:     seed.URL,
			})
		}
	}

	return created, nil
}

func (l *Loader) parseSeed(file string) (*Seed, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if seed.Name == "" {
		fileName := filepath.Base(file)
		seed.Name = strings.TrimSuffix(fileName, ".yml")
	}
	if seed.URL == "" {
		return nil, fmt.Errorf("missing url")
	}
	if seed.Owner == "" {
		return nil, fmt.Errorf("missing owner")
	}

	return &seed, nil
}
