package app

import "schoolplus/internal/domain"

const (
	chartBlue = "#3498DB"
	chartFill = "rgba(52,152,219,0.2)"
)

// CourseTrend builds the score-trend line chart of the course page.
func CourseTrend(semesters []string, scores []float64) domain.ChartSpec {
	return domain.ChartSpec{
		ID:     "scoreTrendChart",
		Type:   "line",
		Labels: append([]string(nil), semesters...),
		Datasets: []domain.Dataset{{
			Label:           "Average Score",
			Data:            append([]float64(nil), scores...),
			BorderColor:     chartBlue,
			BackgroundColor: chartFill,
			Tension:         0.3,
			Fill:            true,
		}},
		Min:          0,
		Max:          100,
		SuggestedMax: true,
	}
}

// GradeRadar builds the insights radar chart of the grades page.
func GradeRadar(courses []string, scores []float64) domain.ChartSpec {
	return domain.ChartSpec{
		ID:     "insightsChart",
		Type:   "radar",
		Labels: append([]string(nil), courses...),
		Datasets: []domain.Dataset{{
			Label:           "Scores",
			Data:            append([]float64(nil), scores...),
			BorderColor:     chartBlue,
			BackgroundColor: chartFill,
			PointColor:      chartBlue,
		}},
		Min:        0,
		Max:        100,
		ShowLegend: true,
	}
}
