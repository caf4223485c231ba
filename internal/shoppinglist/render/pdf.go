// Package render turns an aggregated shopping list into a printable
// PDF.
package render

import (
	"bytes"
	"fmt"
	"io"

	"github.com/bluecrumb/recipecost/internal/shoppinglist/domain"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

func PDF(list *domain.List) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, "Shopping list", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)
	m.AddRow(8,
		text.NewCol(12, "Generated "+list.GeneratedAt.Format("2006-01-02 15:04 MST"), props.Text{
			Size: 9,
		}),
	)

	m.AddRow(10,
		text.NewCol(5, "Item", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "Required", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Packages", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Est. cost", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	m.AddRow(1, col.New(12).Add(
	// Line
	))

	var estimated float64
	for _, item := range list.Items {
		packages := "-"
		cost := "-"
		if item.PackagesToBuy != nil {
			packages = fmt.Sprintf("%d", *item.PackagesToBuy)
			cost = fmt.Sprintf("%.2f", item.EstimatedCost)
			estimated += item.EstimatedCost
		}

		m.AddRow(10,
			text.NewCol(5, item.Name, props.Text{Size: 9}),
			text.NewCol(3, fmt.Sprintf("%.2f %s", item.RequiredQuantity, item.Unit), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, packages, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, cost, props.Text{Size: 9, Align: align.Right}),
		)

		for _, c := range item.Contributions {
			m.AddRow(7,
				text.NewCol(8, fmt.Sprintf("%s x%d", c.RecipeTitle, c.Batches), props.Text{Size: 8, Left: 4}),
				text.NewCol(4, fmt.Sprintf("%.2f", c.Total), props.Text{Size: 8, Align: align.Right}),
			)
		}
	}

	m.AddRow(12,
		col.New(8),
		text.NewCol(2, "Estimated total", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, fmt.Sprintf("%.2f", estimated), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
