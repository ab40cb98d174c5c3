package seedfile

import (
	"fmt"
	"io"
	"os"

	"paidvote/contexts/awards-voting/catalog-service/application/commands"

	"gopkg.in/yaml.v3"
)

type File struct {
	Categories []Category `yaml:"categories"`
}

type Category struct {
	ID          string       `yaml:"id"`
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Active      *bool        `yaml:"is_active"`
	Contestants []Contestant `yaml:"contestants"`
}

type Contestant struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	PhotoRef string `yaml:"photo_ref"`
}

func FromReader(r io.Reader) (commands.SeedCatalogCommand, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if err == io.EOF {
			return commands.SeedCatalogCommand{}, nil
		}
		return commands.SeedCatalogCommand{}, fmt.Errorf("decode catalog seed: %w", err)
	}
	return file.command(), nil
}

func FromFile(path string) (commands.SeedCatalogCommand, error) {
	f, err := os.Open(path)
	if err != nil {
		return commands.SeedCatalogCommand{}, err
	}
	defer f.Close()
	return FromReader(f)
}

// command maps the file layout onto the seed command. Categories are active
// unless the file says otherwise.
func (f File) command() commands.SeedCatalogCommand {
	cmd := commands.SeedCatalogCommand{
		Categories: make([]commands.SeedCategory, 0, len(f.Categories)),
	}
	for _, category := range f.Categories {
		active := true
		if category.Active != nil {
			active = *category.Active
		}
		seed := commands.SeedCategory{
			ID:          category.ID,
			Name:        category.Name,
			Description: category.Description,
			Active:      active,
		}
		for _, contestant := range category.Contestants {
			seed.Contestants = append(seed.Contestants, commands.SeedContestant{
				ID:       contestant.ID,
				Name:     contestant.Name,
				PhotoRef: contestant.PhotoRef,
			})
		}
		cmd.Categories = append(cmd.Categories, seed)
	}
	return cmd
}
