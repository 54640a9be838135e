package trips

import (
	"fmt"
	"strings"

	"github.com/tripweaver/tripweaver/internal/models"
)

func formatTripList(header string, trips []models.Trip) string {
	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString("\n")
	for _, trip := range trips {
		fmt.Fprintf(&sb, "• %s (%s — %s)\n",
			trip.Name,
			trip.StartDate.Format(models.DateLayout),
			trip.EndDate.Format(models.DateLayout))
	}
	return sb.String()
}

func formatTripDetails(sb *strings.Builder, trip models.Trip, points []models.Point) {
	fmt.Fprintf(sb, "Trip: %s\n", trip.Name)
	fmt.Fprintf(sb, "Dates: %s — %s\n",
		trip.StartDate.Format(models.DateLayout),
		trip.EndDate.Format(models.DateLayout))
	if trip.Rated() {
		fmt.Fprintf(sb, "Rating: %d ⭐\n", trip.Rating)
	} else {
		sb.WriteString("Rating: not rated\n")
	}

	sb.WriteString("Notes:")
	if len(trip.Notes) == 0 {
		sb.WriteString(" none\n")
	} else {
		sb.WriteString("\n")
		for _, note := range trip.Notes {
			fmt.Fprintf(sb, "- %s\n", note)
		}
	}

	sb.WriteString("Visited points:\n")
	visited := 0
	for _, point := range points {
		if !point.Visited {
			continue
		}
		visited++
		fmt.Fprintf(sb, "• %s", point.Name)
		if len(point.Notes) > 0 {
			sb.WriteString(" (notes:")
			for _, note := range point.Notes {
				fmt.Fprintf(sb, "\n  - %s", note)
			}
			sb.WriteString(")")
		}
		sb.WriteString("\n")
	}
	if visited == 0 {
		sb.WriteString("no visited points\n")
	}
}
