package roadmap

import (
	"fmt"
	"strings"

	"github.com/tbourn/go-roadmap-backend/internal/domain"
)

// BuildTree converts an envelope into the single-root tree the API returns.
// The root is named after the capitalized original query; chapters keep
// their order. Modules without a name are dropped, and an envelope that
// leaves no modules at all is rejected with ErrInvalidFormat.
func BuildTree(env Envelope) ([]domain.Node, error) {
	root := domain.Node{
		Name:     Capitalize(env.Query),
		Children: make([]domain.Node, 0, len(env.Chapters)),
	}

	for _, ch := range env.Chapters {
		chapter := domain.Node{Name: ch.Name}
		for _, m := range ch.Modules {
			if strings.TrimSpace(m.Name) == "" {
				continue
			}
			chapter.Children = append(chapter.Children, domain.Node{
				Name:              m.Name,
				ModuleDescription: m.Description,
				Link:              m.Link,
			})
		}
		root.Children = append(root.Children, chapter)
	}

	if root.ModuleCount() == 0 {
		return nil, fmt.Errorf("%w: no modules", ErrInvalidFormat)
	}
	return []domain.Node{root}, nil
}
