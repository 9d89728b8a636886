// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file loads an initial menu/role/user fixture from YAML
// into an empty database.
package repo

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/tbourn/go-menu-backend/internal/domain"
)

// Seed is the YAML fixture layout. Menus reference their parent, and roles
// reference menus, by Key; keys exist only in the file.
type Seed struct {
	Menus []SeedMenu `yaml:"menus"`
	Roles []SeedRole `yaml:"roles"`
	Users []SeedUser `yaml:"users"`
}

// SeedMenu is one menu row. Parents must appear before their children.
type SeedMenu struct {
	Key      string `yaml:"key"`
	Parent   string `yaml:"parent"`
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Perms    string `yaml:"perms"`
	Type     int    `yaml:"type"`
	Icon     string `yaml:"icon"`
	OrderNum int    `yaml:"order_num"`
}

// SeedRole grants Menus (by key) to a role.
type SeedRole struct {
	Name  string   `yaml:"name"`
	Menus []string `yaml:"menus"`
}

// SeedUser assigns Roles (by name) to a user.
type SeedUser struct {
	Username string   `yaml:"username"`
	Locked   bool     `yaml:"locked"`
	Roles    []string `yaml:"roles"`
}

// DecodeSeed parses a fixture, rejecting unknown keys.
func DecodeSeed(r io.Reader) (*Seed, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var s Seed
	if err := dec.Decode(&s); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return &s, nil
}

// SeedFromYAML applies the fixture at path when the menus table is empty.
// It reports whether anything was written.
func SeedFromYAML(ctx context.Context, db *gorm.DB, path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	s, err := DecodeSeed(f)
	if err != nil {
		return false, err
	}
	return ApplySeed(ctx, db, s)
}

// ApplySeed writes s in one transaction when no live menus exist yet.
func ApplySeed(ctx context.Context, db *gorm.DB, s *Seed) (bool, error) {
	n, err := CountMenus(ctx, db)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := make(map[string]int, len(s.Menus))
		for _, sm := range s.Menus {
			parentID := 0
			if sm.Parent != "" {
				id, ok := ids[sm.Parent]
				if !ok {
					return fmt.Errorf("seed menu %q: unknown parent %q", sm.Key, sm.Parent)
				}
				parentID = id
			}
			m := &domain.Menu{
				ParentID: parentID,
				Name:     sm.Name,
				URL:      sm.URL,
				Perms:    sm.Perms,
				Type:     sm.Type,
				Icon:     sm.Icon,
				OrderNum: sm.OrderNum,
			}
			if err := CreateMenu(ctx, tx, m); err != nil {
				return fmt.Errorf("seed menu %q: %w", sm.Key, err)
			}
			ids[sm.Key] = m.ID
		}

		roles := make(map[string]int, len(s.Roles))
		for _, sr := range s.Roles {
			r, err := FirstOrCreateRole(ctx, tx, sr.Name)
			if err != nil {
				return fmt.Errorf("seed role %q: %w", sr.Name, err)
			}
			roles[sr.Name] = r.ID
			for _, key := range sr.Menus {
				id, ok := ids[key]
				if !ok {
					return fmt.Errorf("seed role %q: unknown menu %q", sr.Name, key)
				}
				if err := GrantMenu(ctx, tx, r.ID, id); err != nil {
					return err
				}
			}
		}

		for _, su := range s.Users {
			u, err := UpsertUser(ctx, tx, su.Username, su.Locked)
			if err != nil {
				return fmt.Errorf("seed user %q: %w", su.Username, err)
			}
			for _, name := range su.Roles {
				rid, ok := roles[name]
				if !ok {
					return fmt.Errorf("seed user %q: unknown role %q", su.Username, name)
				}
				if err := AssignRole(ctx, tx, u.ID, rid); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
