package listing

// Gap is a listing page abandoned after its retries ran out
type Gap struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// State is the in-memory crawl state of one run
type State struct {
	Source string // listing source being paginated
	Page   int    // current page number, 1-based
	Gaps   []Gap

	visited map[string]bool
}

// NewState returns an empty crawl state
func NewState() *State {
	return &State{visited: make(map[string]bool)}
}

// Visit marks id as seen and reports whether it was new in this run
func (s *State) Visit(id string) bool {
	if s.visited[id] {
		return false
	}
	s.visited[id] = true
	return true
}

// Seen reports whether id was already visited in this run
func (s *State) Seen(id string) bool {
	return s.visited[id]
}

// Visited returns the number of distinct ids seen
func (s *State) Visited() int {
	return len(s.visited)
}

func (s *State) gap(url string, err error) {
	reason := "unknown error"
	if err != nil {
		reason = err.Error()
	}
	s.Gaps = append(s.Gaps, Gap{URL: url, Reason: reason})
}
