// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package models

type MapInfo struct {
	Name       string `json:"name"`
	MaxPlayers int    `json:"maxplayers"`
	Locked     bool   `json:"locked"`
}
