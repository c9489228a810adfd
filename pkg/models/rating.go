// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package models

import "sort"

// RatingBracket holds the rating rewards for players whose rating falls in [Start, End].
type RatingBracket struct {
	Name     string `json:"name" koanf:"name"`
	Start    int    `json:"start" koanf:"start"`
	End      int    `json:"end" koanf:"end"`
	Win      int    `json:"win" koanf:"win"`
	Loss     int    `json:"loss" koanf:"loss"`
	MVP      int    `json:"mvp" koanf:"mvp"`
	BedBreak int    `json:"bed_break" koanf:"bed_break"`
}

func (b RatingBracket) Contains(rating int) bool {
	return rating >= b.Start && rating <= b.End
}

// SortBrackets orders brackets by their lower bound.
func SortBrackets(brackets []RatingBracket) {
	sort.SliceStable(brackets, func(i, j int) bool {
		return brackets[i].Start < brackets[j].Start
	})
}

// BracketFor returns the bracket containing rating. Brackets must be sorted.
func BracketFor(brackets []RatingBracket, rating int) (RatingBracket, bool) {
	for _, b := range brackets {
		if b.Contains(rating) {
			return b, true
		}
	}
	return RatingBracket{}, false
}
