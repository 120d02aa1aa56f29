package store

import (
	"context"
	"fmt"
	"slices"
)

// Option configures a ContentStore or MessageStore.
type Option func(*options)

type options struct {
	newID IDGenerator
}

// WithIDGenerator overrides the default random id generator.
func WithIDGenerator(gen IDGenerator) Option {
	return func(o *options) {
		o.newID = gen
	}
}

func buildOptions(opts []Option) options {
	o := options{newID: NewID}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ContentStore owns the SiteContent document. All mutations are serialized;
// Get returns a consistent snapshot.
type ContentStore struct {
	doc   *document[SiteContent]
	newID IDGenerator
}

// NewContentStore loads the content document, creating it from seed when the
// database does not have one yet.
func NewContentStore(ctx context.Context, db *DB, seed SiteContent, opts ...Option) (*ContentStore, error) {
	o := buildOptions(opts)
	var current SiteContent
	err := db.Load(ctx, ContentDocument, &current)
	switch {
	case isMissing(err):
		current = seed.Clone()
		if err := db.Save(ctx, ContentDocument, current); err != nil {
			return nil, &PersistenceError{Op: "seed content", Err: err}
		}
	case err != nil:
		return nil, &PersistenceError{Op: "load content", Err: err}
	}
	return &ContentStore{
		doc: &document[SiteContent]{
			db:    db,
			name:  ContentDocument,
			value: current.Clone(),
			clone: SiteContent.Clone,
		},
		newID: o.newID,
	}, nil
}

// Get returns the current document.
func (s *ContentStore) Get() SiteContent {
	return s.doc.read()
}

// UpdateHero merges patch into the hero block and returns the result.
func (s *ContentStore) UpdateHero(ctx context.Context, patch HeroPatch) (Hero, error) {
	var out Hero
	err := s.doc.mutate(ctx, "update hero", func(c *SiteContent) error {
		patch.apply(&c.Hero)
		out = c.Hero
		return nil
	})
	return out, err
}

// UpdateFooter merges patch into the footer block and returns the result.
func (s *ContentStore) UpdateFooter(ctx context.Context, patch FooterPatch) (Footer, error) {
	var out Footer
	err := s.doc.mutate(ctx, "update footer", func(c *SiteContent) error {
		patch.apply(&c.Footer)
		out = c.Footer
		out.SocialLinks = cloneList(c.Footer.SocialLinks)
		return nil
	})
	return out, err
}

// AddCard appends a card with a fresh id.
func (s *ContentStore) AddCard(ctx context.Context, f CardFields) (Card, error) {
	var out Card
	err := s.doc.mutate(ctx, "add card", func(c *SiteContent) error {
		id := freshID(s.newID, "card", func(id string) bool {
			return slices.ContainsFunc(c.Cards, func(x Card) bool { return x.ID == id })
		})
		out = Card{ID: id, Icon: f.Icon, Title: f.Title, Description: f.Description}
		c.Cards = append(c.Cards, out)
		return nil
	})
	return out, err
}

// UpdateCard merges patch into the card with the given id.
func (s *ContentStore) UpdateCard(ctx context.Context, id string, patch CardPatch) (Card, error) {
	var out Card
	err := s.doc.mutate(ctx, "update card", func(c *SiteContent) error {
		i := slices.IndexFunc(c.Cards, func(x Card) bool { return x.ID == id })
		if i < 0 {
			return fmt.Errorf("card %q: %w", id, ErrNotFound)
		}
		patch.apply(&c.Cards[i])
		out = c.Cards[i]
		return nil
	})
	return out, err
}

// DeleteCard removes the card with the given id. Deleting an absent id
// succeeds without writing.
func (s *ContentStore) DeleteCard(ctx context.Context, id string) error {
	return s.doc.mutate(ctx, "delete card", func(c *SiteContent) error {
		n := len(c.Cards)
		c.Cards = slices.DeleteFunc(c.Cards, func(x Card) bool { return x.ID == id })
		if len(c.Cards) == n {
			return errUnchanged
		}
		return nil
	})
}

// AddProject appends a project with a fresh id.
func (s *ContentStore) AddProject(ctx context.Context, f ProjectFields) (Project, error) {
	var out Project
	err := s.doc.mutate(ctx, "add project", func(c *SiteContent) error {
		id := freshID(s.newID, "project", func(id string) bool {
			return slices.ContainsFunc(c.Projects, func(x Project) bool { return x.ID == id })
		})
		out = Project{ID: id, Title: f.Title, Description: f.Description, Link: f.Link, Image: f.Image}
		c.Projects = append(c.Projects, out)
		return nil
	})
	return out, err
}

// UpdateProject merges patch into the project with the given id.
func (s *ContentStore) UpdateProject(ctx context.Context, id string, patch ProjectPatch) (Project, error) {
	var out Project
	err := s.doc.mutate(ctx, "update project", func(c *SiteContent) error {
		i := slices.IndexFunc(c.Projects, func(x Project) bool { return x.ID == id })
		if i < 0 {
			return fmt.Errorf("project %q: %w", id, ErrNotFound)
		}
		patch.apply(&c.Projects[i])
		out = c.Projects[i]
		return nil
	})
	return out, err
}

// DeleteProject removes the project with the given id. Deleting an absent id
// succeeds without writing.
func (s *ContentStore) DeleteProject(ctx context.Context, id string) error {
	return s.doc.mutate(ctx, "delete project", func(c *SiteContent) error {
		n := len(c.Projects)
		c.Projects = slices.DeleteFunc(c.Projects, func(x Project) bool { return x.ID == id })
		if len(c.Projects) == n {
			return errUnchanged
		}
		return nil
	})
}
