package store

import (
	"context"
	"errors"
	"fmt"
	"html"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

// submission is a contact form payload after sanitization.
type submission struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,max=320"`
	Message string `json:"message" validate:"required,max=5000"`
}

// MessageStore owns the message inbox document.
type MessageStore struct {
	doc      *document[[]Message]
	newID    IDGenerator
	now      func() time.Time
	validate *validator.Validate
	policy   *bluemonday.Policy
}

// NewMessageStore loads the inbox, creating an empty one if none is stored.
func NewMessageStore(ctx context.Context, db *DB, opts ...Option) (*MessageStore, error) {
	o := buildOptions(opts)
	var current []Message
	err := db.Load(ctx, MessagesDocument, &current)
	switch {
	case isMissing(err):
		current = []Message{}
		if err := db.Save(ctx, MessagesDocument, current); err != nil {
			return nil, &PersistenceError{Op: "create inbox", Err: err}
		}
	case err != nil:
		return nil, &PersistenceError{Op: "load inbox", Err: err}
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})

	return &MessageStore{
		doc: &document[[]Message]{
			db:    db,
			name:  MessagesDocument,
			value: cloneMessages(current),
			clone: cloneMessages,
		},
		newID:    o.newID,
		now:      time.Now,
		validate: v,
		policy:   bluemonday.StrictPolicy(),
	}, nil
}

// Submit validates and appends a new unread message. Markup is stripped
// from every field before validation, so a field holding only tags counts
// as empty and lengths are measured on the plain text.
func (s *MessageStore) Submit(ctx context.Context, name, email, message string) (Message, error) {
	in := submission{
		Name:    s.clean(name),
		Email:   s.clean(email),
		Message: s.clean(message),
	}
	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			return Message{}, &ValidationError{Fields: fields}
		}
		return Message{}, fmt.Errorf("validate message: %w", err)
	}

	var out Message
	err := s.doc.mutate(ctx, "submit message", func(msgs *[]Message) error {
		id := freshID(s.newID, "msg", func(id string) bool {
			return slices.ContainsFunc(*msgs, func(m Message) bool { return m.ID == id })
		})
		out = Message{
			ID:        id,
			Name:      in.Name,
			Email:     in.Email,
			Message:   in.Message,
			Timestamp: s.now().UTC(),
		}
		*msgs = append(*msgs, out)
		return nil
	})
	return out, err
}

// clean strips markup and stores the plain text the visitor typed. The
// policy escapes the text it keeps, so the result is unescaped and stripped
// again until stable; escaped tags in the input cannot come back as markup.
func (s *MessageStore) clean(v string) string {
	for range 4 {
		next := html.UnescapeString(s.policy.Sanitize(v))
		if next == v {
			break
		}
		v = next
	}
	return strings.TrimSpace(v)
}

// List returns all messages in insertion order.
func (s *MessageStore) List() []Message {
	return s.doc.read()
}

// Unread returns the number of messages not yet marked read.
func (s *MessageStore) Unread() int {
	s.doc.mu.RLock()
	defer s.doc.mu.RUnlock()
	n := 0
	for _, m := range s.doc.value {
		if !m.Read {
			n++
		}
	}
	return n
}

// MarkRead flags the message with the given id as read.
func (s *MessageStore) MarkRead(ctx context.Context, id string) error {
	return s.doc.mutate(ctx, "mark message read", func(msgs *[]Message) error {
		i := slices.IndexFunc(*msgs, func(m Message) bool { return m.ID == id })
		if i < 0 {
			return fmt.Errorf("message %q: %w", id, ErrNotFound)
		}
		if (*msgs)[i].Read {
			return errUnchanged
		}
		(*msgs)[i].Read = true
		return nil
	})
}

// Delete removes the message with the given id. Deleting an absent id
// succeeds without writing.
func (s *MessageStore) Delete(ctx context.Context, id string) error {
	return s.doc.mutate(ctx, "delete message", func(msgs *[]Message) error {
		n := len(*msgs)
		*msgs = slices.DeleteFunc(*msgs, func(m Message) bool { return m.ID == id })
		if len(*msgs) == n {
			return errUnchanged
		}
		return nil
	})
}
