// Package neucore holds the types a Neucore host exchanges with a service
// plugin, and the capability set every plugin has to provide.
package neucore

import "context"

// AccountStatus is the normalized state of a character's service account as
// reported back to the host.
type AccountStatus string

const (
	StatusUnknown     AccountStatus = "unknown"
	StatusPending     AccountStatus = "pending"
	StatusActive      AccountStatus = "active"
	StatusDeactivated AccountStatus = "deactivated"
)

func (s AccountStatus) String() string { return string(s) }

// Character is a character as the host knows it.
type Character struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	PlayerID          int64  `json:"playerId,omitempty"`
	PlayerName        string `json:"playerName,omitempty"`
	CorporationID     int64  `json:"corporationId,omitempty"`
	CorporationName   string `json:"corporationName,omitempty"`
	CorporationTicker string `json:"corporationTicker,omitempty"`
	AllianceID        int64  `json:"allianceId,omitempty"`
	AllianceName      string `json:"allianceName,omitempty"`
	AllianceTicker    string `json:"allianceTicker,omitempty"`
	Main              bool   `json:"main,omitempty"`
}

// Group is a host group membership.
type Group struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ServiceAccountData is what a plugin reports for one character.
type ServiceAccountData struct {
	CharacterID int64         `json:"characterId"`
	Username    string        `json:"username,omitempty"`
	Password    string        `json:"password,omitempty"`
	Email       string        `json:"email,omitempty"`
	Status      AccountStatus `json:"status,omitempty"`
	DisplayName string        `json:"displayName,omitempty"`
}

// Service is the fixed set of operations the host invokes on a plugin.
// Plugins that do not support an operation return an error that says so
// instead of panicking.
type Service interface {
	GetAccounts(ctx context.Context, characters []Character, groups []Group) ([]ServiceAccountData, error)
	Register(ctx context.Context, character Character, groups []Group, email string, allCharacterIDs []int64) (*ServiceAccountData, error)
	UpdateAccount(ctx context.Context, character Character, groups []Group, main *Character) error
	UpdatePlayerAccount(ctx context.Context, main Character, groups []Group) error
	MoveServiceAccount(ctx context.Context, toPlayerID, fromPlayerID int64) error
	ResetPassword(ctx context.Context, characterID int64) (string, error)
	GetAllAccounts(ctx context.Context) ([]int64, error)
	GetAllPlayerAccounts(ctx context.Context) ([]int64, error)
	Search(ctx context.Context, query string) ([]ServiceAccountData, error)
}

// CharacterIDs collects the ids of a list of characters.
func CharacterIDs(characters []Character) []int64 {
	ids := make([]int64, len(characters))
	for i, c := range characters {
		ids[i] = c.ID
	}
	return ids
}
