package systems

import (
	"github.com/zeusync/lunarnav/internal/core/nav"
)

// NavigationSystem steps a Navigator once per frame.
type NavigationSystem struct {
	navigator *nav.Navigator
	onResult  func(nav.Result)
}

var _ System = (*NavigationSystem)(nil)

// NewNavigationSystem wraps n. onResult, if set, sees every frame result.
func NewNavigationSystem(n *nav.Navigator, onResult func(nav.Result)) *NavigationSystem {
	return &NavigationSystem{navigator: n, onResult: onResult}
}

func (s *NavigationSystem) Name() string { return "navigation" }

func (s *NavigationSystem) Priority() Priority { return PriorityHighest }

func (s *NavigationSystem) Update(deltaTime float64) error {
	res := s.navigator.Update(deltaTime)
	if s.onResult != nil {
		s.onResult(res)
	}
	return nil
}
