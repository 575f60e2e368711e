package engine

import "time"

// Level maps a strength level to engine search limits. Levels approximate
// rating bands from casual play to world class.
type Level struct {
	Depth    int
	Skill    int
	MoveTime time.Duration
	Elo      int
	Label    string
}

var levels = map[int]Level{
	1:  {Depth: 1, Skill: 0, MoveTime: 100 * time.Millisecond, Elo: 800, Label: "Beginner - Makes basic mistakes"},
	5:  {Depth: 5, Skill: 10, MoveTime: 500 * time.Millisecond, Elo: 1200, Label: "Intermediate - Solid fundamentals"},
	10: {Depth: 10, Skill: 15, MoveTime: time.Second, Elo: 1800, Label: "Advanced - Strong tactical player"},
	15: {Depth: 15, Skill: 20, MoveTime: 2 * time.Second, Elo: 2200, Label: "Expert - Master level"},
	20: {Depth: 20, Skill: 20, MoveTime: 3 * time.Second, Elo: 2800, Label: "Super GM - World class"},
}

// LevelConfig returns the search limits for a strength level. Unknown levels
// fall back to the mid-tier configuration.
func LevelConfig(level int) Level {
	if l, ok := levels[level]; ok {
		return l
	}
	return levels[10]
}
