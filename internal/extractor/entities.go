package extractor

import "github.com/mvp-joe/classmap/internal/model"

// entitySet collects entities whose members may be declared in several places,
// such as Rust impl blocks or Go methods declared apart from their type.
// Order of first appearance is preserved.
type entitySet struct {
	order  []*model.ClassEntity
	byName map[string]*model.ClassEntity
}

func newEntitySet() *entitySet {
	return &entitySet{byName: make(map[string]*model.ClassEntity)}
}

// ensure returns the entity named name, creating it with kind if missing.
func (s *entitySet) ensure(name string, kind model.Kind) *model.ClassEntity {
	if e, ok := s.byName[name]; ok {
		return e
	}
	e := &model.ClassEntity{Name: name, Kind: kind}
	s.byName[name] = e
	s.order = append(s.order, e)
	return e
}

func (s *entitySet) list() []model.ClassEntity {
	if len(s.order) == 0 {
		return nil
	}
	out := make([]model.ClassEntity, len(s.order))
	for i, e := range s.order {
		out[i] = *e
	}
	return out
}
