package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Group struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name      string               `bson:"name" json:"name"`
	Members   []string             `bson:"members" json:"members"`
	Admins    []string             `bson:"admins" json:"admins"`
	Messages  []primitive.ObjectID `bson:"messages" json:"messages"`
	ImageURL  string               `bson:"image_url,omitempty" json:"image_url,omitempty"`
	CreatedBy string               `bson:"created_by" json:"created_by"`
	CreatedAt time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time            `bson:"updated_at" json:"updated_at"`
}

// Recipients is the union of members and admins, deduplicated by identity.
// Fan-out additionally deduplicates by resolved connection id.
func (g *Group) Recipients() []string {
	seen := make(map[string]struct{}, len(g.Members)+len(g.Admins))
	out := make([]string, 0, len(g.Members)+len(g.Admins))
	for _, id := range g.Members {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, id := range g.Admins {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// IsAdmin reports whether userID is in the admin list.
func (g *Group) IsAdmin(userID string) bool {
	for _, id := range g.Admins {
		if id == userID {
			return true
		}
	}
	return false
}

// IsMember reports whether userID is a member or an admin.
func (g *Group) IsMember(userID string) bool {
	for _, id := range g.Members {
		if id == userID {
			return true
		}
	}
	return g.IsAdmin(userID)
}
