package store

import (
	"slices"
	"strings"
	"time"
)

// SiteContent is the single document rendered by the public site.
type SiteContent struct {
	Hero     Hero      `json:"hero"`
	Cards    []Card    `json:"cards"`
	Projects []Project `json:"projects"`
	Footer   Footer    `json:"footer"`
}

type Hero struct {
	Heading    string `json:"heading"`
	Subheading string `json:"subheading"`
	CTAText    string `json:"ctaText"`
	ImageURL   string `json:"imageUrl"`
}

type Card struct {
	ID          string `json:"id"`
	Icon        string `json:"icon"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Project struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
	Image       string `json:"image"`
}

type Footer struct {
	CopyrightText string       `json:"copyrightText"`
	SocialLinks   []SocialLink `json:"socialLinks"`
}

type SocialLink struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Icon string `json:"icon"`
}

// Message is a contact form submission. Only Read changes after creation.
type Message struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}

// CardFields are the caller-supplied fields of a new card.
type CardFields struct {
	Icon        string `json:"icon"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ProjectFields are the caller-supplied fields of a new project.
type ProjectFields struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
	Image       string `json:"image"`
}

// Patch types carry optional fields: a nil field leaves the stored value
// untouched, a non-nil field overwrites it.

type HeroPatch struct {
	Heading    *string `json:"heading"`
	Subheading *string `json:"subheading"`
	CTAText    *string `json:"ctaText"`
	ImageURL   *string `json:"imageUrl"`
}

type CardPatch struct {
	Icon        *string `json:"icon"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

type ProjectPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Link        *string `json:"link"`
	Image       *string `json:"image"`
}

// FooterPatch replaces the whole social link list when SocialLinks is set.
type FooterPatch struct {
	CopyrightText *string             `json:"copyrightText"`
	SocialLinks   *[]SocialLinkInput `json:"socialLinks"`
}

type SocialLinkInput struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func setIf(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func (p HeroPatch) apply(h *Hero) {
	setIf(&h.Heading, p.Heading)
	setIf(&h.Subheading, p.Subheading)
	setIf(&h.CTAText, p.CTAText)
	setIf(&h.ImageURL, p.ImageURL)
}

func (p CardPatch) apply(c *Card) {
	setIf(&c.Icon, p.Icon)
	setIf(&c.Title, p.Title)
	setIf(&c.Description, p.Description)
}

func (p ProjectPatch) apply(pr *Project) {
	setIf(&pr.Title, p.Title)
	setIf(&pr.Description, p.Description)
	setIf(&pr.Link, p.Link)
	setIf(&pr.Image, p.Image)
}

func (p FooterPatch) apply(f *Footer) {
	setIf(&f.CopyrightText, p.CopyrightText)
	if p.SocialLinks != nil {
		links := make([]SocialLink, 0, len(*p.SocialLinks))
		for _, l := range *p.SocialLinks {
			links = append(links, SocialLink{Name: l.Name, URL: l.URL, Icon: strings.ToLower(l.Name)})
		}
		f.SocialLinks = links
	}
}

// Clone returns a deep copy with nil lists replaced by empty ones.
func (c SiteContent) Clone() SiteContent {
	out := c
	out.Cards = cloneList(c.Cards)
	out.Projects = cloneList(c.Projects)
	out.Footer.SocialLinks = cloneList(c.Footer.SocialLinks)
	return out
}

func cloneMessages(msgs []Message) []Message {
	return cloneList(msgs)
}

func cloneList[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return slices.Clone(in)
}
