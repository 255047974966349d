package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"farmbooks/internal/config"
	"farmbooks/internal/domain"
	"farmbooks/internal/port"
)

type staticDirectory struct {
	users map[uuid.UUID]port.UserRef
}

// NewStaticDirectory builds an in-memory IdentityDirectory from configuration.
// Entries are semicolon-separated "id=email|name" triples; the real user store
// lives in the surrounding application.
func NewStaticDirectory(cfg *config.IdentityConfig) (port.IdentityDirectory, error) {
	users := make(map[uuid.UUID]port.UserRef)

	for _, entry := range strings.Split(cfg.Users, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		idPart, contact, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("identity.NewStaticDirectory: malformed entry %q", entry)
		}
		id, err := uuid.Parse(strings.TrimSpace(idPart))
		if err != nil {
			return nil, fmt.Errorf("identity.NewStaticDirectory: entry %q: %w", entry, err)
		}
		email, name, _ := strings.Cut(contact, "|")
		email = strings.TrimSpace(email)
		name = strings.TrimSpace(name)
		if name == "" {
			name = email
		}
		users[id] = port.UserRef{ID: id, Email: email, Name: name}
	}

	return &staticDirectory{users: users}, nil
}

func (d *staticDirectory) Lookup(_ context.Context, id uuid.UUID) (*port.UserRef, error) {
	ref, ok := d.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &ref, nil
}
