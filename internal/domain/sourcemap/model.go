package sourcemap

import (
	"fmt"
	"strings"
	"time"
)

type EntityType string

const (
	EntityTeam  EntityType = "team"
	EntityMatch EntityType = "match"
	EntityEvent EntityType = "event"
)

// Key identifies an entity by the id a source platform gave it.
type Key struct {
	EntityType EntityType
	Platform   string
	SourceID   string
}

func (k Key) String() string {
	return string(k.EntityType) + ":" + k.Platform + ":" + k.SourceID
}

func (k Key) Validate() error {
	switch k.EntityType {
	case EntityTeam, EntityMatch, EntityEvent:
	default:
		return fmt.Errorf("invalid entity type %q", k.EntityType)
	}
	if strings.TrimSpace(k.Platform) == "" || strings.TrimSpace(k.SourceID) == "" {
		return fmt.Errorf("source map key %s is incomplete", k)
	}
	return nil
}

// Entry is write-once: a refresh only moves RefreshedAt.
type Entry struct {
	Key
	CanonicalID string
	CreatedAt   time.Time
	RefreshedAt time.Time
}
