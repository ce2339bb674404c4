package entity

// ChannelPost records that a listing was posted to a channel under a remote message id.
type ChannelPost struct {
	ChannelID string `json:"channelId"`
	PostID    string `json:"postId"`
	Media     bool   `json:"media"`
}

// Registry is the ordered set of channel posts of one listing, at most one per channel.
type Registry []ChannelPost

func (r Registry) Find(channelID string) (ChannelPost, bool) {
	for _, p := range r {
		if p.ChannelID == channelID {
			return p, true
		}
	}
	return ChannelPost{}, false
}

// With returns a registry holding post, replacing any entry for the same channel in place.
func (r Registry) With(post ChannelPost) Registry {
	out := make(Registry, 0, len(r)+1)
	replaced := false
	for _, p := range r {
		if p.ChannelID == post.ChannelID {
			if !replaced {
				out = append(out, post)
				replaced = true
			}
			continue
		}
		out = append(out, p)
	}
	if !replaced {
		out = append(out, post)
	}
	return out
}

// Without drops the entry for channelID. The receiver is left untouched.
func (r Registry) Without(channelID string) Registry {
	out := make(Registry, 0, len(r))
	for _, p := range r {
		if p.ChannelID != channelID {
			out = append(out, p)
		}
	}
	return out
}
