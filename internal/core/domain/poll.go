package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/dood/doodle"
)

// PollRecord is what the gateway remembers about a poll it created. Doodle
// hands out the admin key only once, in the creation response.
type PollRecord struct {
	ID        uuid.UUID `json:"id"`
	PollID    string    `json:"poll_id"`
	Title     string    `json:"title"`
	Type      string    `json:"type"`
	Location  string    `json:"location"`
	AdminKey  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

type PollLinks struct {
	PublicURL string `json:"public_url"`
	AdminURL  string `json:"admin_url"`
}

func (r *PollRecord) Links() PollLinks {
	return PollLinks{
		PublicURL: doodle.PublicURL(r.PollID),
		AdminURL:  doodle.AdminURL(r.PollID, r.AdminKey),
	}
}
