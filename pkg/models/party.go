// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package models

type Party struct {
	ID         string   `json:"partyId"`
	Leader     string   `json:"leader"`
	Members    []string `json:"members"`
	MaxMembers int      `json:"maxMembers"`
}

func (p Party) Has(playerID string) bool {
	for _, m := range p.Members {
		if m == playerID {
			return true
		}
	}
	return false
}
