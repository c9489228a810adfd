// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package config

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/rbwleague/matchcoordinator/pkg/models"
)

type ratingsFile struct {
	Brackets []models.RatingBracket `koanf:"brackets"`
}

// DefaultRatingBrackets is used when no ratings file is configured.
func DefaultRatingBrackets() []models.RatingBracket {
	return []models.RatingBracket{
		{Name: "Coal", Start: 0, End: 99, Win: 35, Loss: 5, MVP: 10, BedBreak: 5},
		{Name: "Iron", Start: 100, End: 199, Win: 30, Loss: 10, MVP: 10, BedBreak: 5},
		{Name: "Gold", Start: 200, End: 399, Win: 25, Loss: 12, MVP: 8, BedBreak: 4},
		{Name: "Diamond", Start: 400, End: 699, Win: 20, Loss: 15, MVP: 7, BedBreak: 3},
		{Name: "Emerald", Start: 700, End: 999, Win: 15, Loss: 18, MVP: 5, BedBreak: 2},
		{Name: "Obsidian", Start: 1000, End: 1000000, Win: 10, Loss: 20, MVP: 5, BedBreak: 2},
	}
}

// LoadRatingBrackets reads brackets from a yaml file of the form
//
//	brackets:
//	  - name: Coal
//	    start: 0
//	    end: 99
//	    win: 35
//	    ...
//
// An empty path returns DefaultRatingBrackets. Brackets are returned sorted by start.
func LoadRatingBrackets(path string) ([]models.RatingBracket, error) {
	if path == "" {
		return DefaultRatingBrackets(), nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load ratings file %s: %w", path, err)
	}

	var out ratingsFile
	if err := k.UnmarshalWithConf("", &out, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal ratings file %s: %w", path, err)
	}
	if len(out.Brackets) == 0 {
		return nil, fmt.Errorf("ratings file %s has no brackets", path)
	}
	for _, b := range out.Brackets {
		if b.Start > b.End {
			return nil, fmt.Errorf("bracket %q starts after it ends", b.Name)
		}
	}

	models.SortBrackets(out.Brackets)
	return out.Brackets, nil
}
