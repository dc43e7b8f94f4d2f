package index

// Hit is one channel matching a search, ranked by how many of its messages
// matched.
type Hit struct {
	ChannelID string
	Score     int
	LastSeq   uint64
	Preview   string
}
