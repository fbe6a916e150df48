package repository

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"gazette-backend/internal/models"
)

// UserProvider serves User records from the subscriptions file. Profile
// management is an external concern; the pipeline only reads.
type UserProvider struct {
	users map[string]models.User
	order []string
}

type usersFile struct {
	Users []models.User `yaml:"users"`
}

func NewUserProvider(path string) (*UserProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read users file: %w", err)
	}

	var parsed usersFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse users file: %w", err)
	}

	p := &UserProvider{users: make(map[string]models.User, len(parsed.Users))}
	for _, u := range parsed.Users {
		if u.ID == "" {
			return nil, fmt.Errorf("users file contains an entry without an id")
		}
		p.users[u.ID] = u
		p.order = append(p.order, u.ID)
	}
	return p, nil
}

func (p *UserProvider) Get(id string) (models.User, error) {
	u, ok := p.users[id]
	if !ok {
		return models.User{}, fmt.Errorf("unknown user %q", id)
	}
	return u, nil
}

func (p *UserProvider) All() []models.User {
	out := make([]models.User, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.users[id])
	}
	return out
}
