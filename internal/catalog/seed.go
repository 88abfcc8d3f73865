package catalog

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const seedSupplierLink = "https://pt.shein.com/example"

// StarterProducts is the initial catalog of a fresh store.
func StarterProducts() []CreateInput {
	return []CreateInput{
		{
			Name:         "Moletom Oversized Black",
			Price:        decimal.RequireFromString("299.90"),
			Image:        "https://images.unsplash.com/photo-1711387718409-a05f62a3dc39?crop=entropy&cs=tinysrgb&fit=max&fm=jpg&ixid=M3w3Nzg4Nzd8MHwxfHNlYXJjaHwxfHxzdHJlZXR3ZWFyJTIwaG9vZGllfGVufDF8fHx8MTc2MzQ2NzMwMHww&ixlib=rb-4.1.0&q=80&w=1080",
			Category:     "Moletons",
			Gender:       GenderUnisex,
			Sizes:        []string{"P", "M", "G", "GG"},
			SupplierLink: seedSupplierLink,
			SupplierCost: decimal.NewFromInt(150),
		},
		{
			Name:         "Camiseta Oversized Gola Alta Masculina",
			Price:        decimal.RequireFromString("109.90"),
			Image:        "https://images.unsplash.com/photo-1583743814966-8936f5b7be1a?crop=entropy&cs=tinysrgb&fit=max&fm=jpg&ixid=M3w3Nzg4Nzd8MHwxfHNlYXJjaHwxfHxzdHJlZXR3ZWFyJTIwdHNoaXJ0fGVufDF8fHx8MTc2MzQ2NzMwMHww&ixlib=rb-4.1.0&q=80&w=1080",
			Category:     "Camisetas",
			Gender:       GenderMale,
			Sizes:        []string{"P", "M", "G", "GG"},
			SupplierLink: seedSupplierLink,
			SupplierCost: decimal.NewFromInt(50),
		},
	}
}

// Seed creates every input concurrently. A failed product does not stop
// the others; the first error is returned.
func (s *Service) Seed(ctx context.Context, inputs []CreateInput) ([]Product, error) {
	created := make([]Product, len(inputs))
	ok := make([]bool, len(inputs))

	var g errgroup.Group
	g.SetLimit(4)
	for i, in := range inputs {
		g.Go(func() error {
			p, err := s.Create(ctx, in)
			if err != nil {
				log.Error().Err(err).Str("name", in.Name).Msg("seed product failed")
				return err
			}
			log.Info().Int64("id", p.ID).Str("name", p.Name).Msg("product created")
			created[i], ok[i] = *p, true
			return nil
		})
	}
	err := g.Wait()

	out := make([]Product, 0, len(inputs))
	for i := range created {
		if ok[i] {
			out = append(out, created[i])
		}
	}
	return out, err
}
