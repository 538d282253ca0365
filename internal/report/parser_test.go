package report_test

import (
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	api "github.com/fdam/assessment-planner/api/v1alpha1"
	"github.com/fdam/assessment-planner/internal/report"
)

func TestReport(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "report suite")
}

const sampleReport = `## Executive Summary

Heavy smoke residue observed throughout the kitchen with moderate migration into adjacent rooms.

## Zone Classification

The kitchen is a primary impact zone with heavy soot deposition.

- Establish containment at the kitchen doorway
- Treat the hallway as a secondary zone

## Surface Assessment

Light residue on the hallway walls, trace deposits on upper-floor surfaces.

- Wet wipe all hard surfaces in the kitchen
- HEPA vacuum soft goods in the hallway

## Disposition

| Item | Condition | Disposition |
|------|-----------|-------------|
| **Upholstered sofa** | Heavy soot saturation | Remove and discard |
| Kitchen cabinets | Moderate residue | Clean with degreaser |
| Bedroom furniture | No visible residue | No action required |

## Sampling Recommendations

- Collect tape lifts from the kitchen ceiling
- Sample the HVAC supply vents
- Wipe sample the hallway walls
`

var _ = Describe("Parse", func() {
	Context("well formed reports", func() {
		var parsed api.AssessmentReport

		BeforeEach(func() {
			parsed = report.Parse(sampleReport)
		})

		It("extracts the executive summary", func() {
			Expect(parsed.ExecutiveSummary).To(HavePrefix("Heavy smoke residue"))
			Expect(parsed.ExecutiveSummary).ToNot(ContainSubstring("Zone Classification"))
		})

		It("yields one finding per assessment section", func() {
			Expect(parsed.DetailedAssessment).To(HaveLen(2))
			Expect(parsed.DetailedAssessment[0].Area).To(Equal("Zone Classification"))
			Expect(parsed.DetailedAssessment[0].Severity).To(Equal(api.SeverityHeavy))
			Expect(parsed.DetailedAssessment[0].Recommendations).To(HaveLen(2))
			Expect(parsed.DetailedAssessment[1].Area).To(Equal("Surface Assessment"))
			Expect(parsed.DetailedAssessment[1].Severity).To(Equal(api.SeverityLight))
		})

		It("turns the disposition table into ranked priorities", func() {
			Expect(parsed.RestorationPriority).To(HaveLen(3))

			first := parsed.RestorationPriority[0]
			Expect(first.Priority).To(Equal(1))
			Expect(first.Area).To(Equal("Upholstered sofa"))
			Expect(first.Action).To(Equal(api.ActionRemove))
			Expect(first.Rationale).To(ContainSubstring("Heavy soot saturation"))

			Expect(parsed.RestorationPriority[1].Priority).To(Equal(2))
			Expect(parsed.RestorationPriority[1].Action).To(Equal(api.ActionClean))
			Expect(parsed.RestorationPriority[2].Priority).To(Equal(3))
			Expect(parsed.RestorationPriority[2].Action).To(Equal(api.ActionNoAction))
		})

		It("shares the sampling list between scope and recommendations", func() {
			Expect(parsed.ScopeIndicators).To(HaveLen(3))
			Expect(parsed.ScopeIndicators[0]).To(ContainSubstring("tape lifts"))
			Expect(parsed.FdamRecommendations).To(Equal(parsed.ScopeIndicators))
		})
	})

	Context("degraded input", func() {
		It("never returns empty fields for empty input", func() {
			for _, text := range []string{"", "   ", "\n\n\n"} {
				parsed := report.Parse(text)
				Expect(parsed.ExecutiveSummary).ToNot(BeEmpty())
				Expect(parsed.DetailedAssessment).ToNot(BeEmpty())
				Expect(parsed.RestorationPriority).ToNot(BeEmpty())
				Expect(parsed.ScopeIndicators).ToNot(BeEmpty())
				Expect(parsed.FdamRecommendations).ToNot(BeEmpty())
			}
		})

		It("uses the first paragraph when no headings exist", func() {
			parsed := report.Parse("Moderate smoke damage across the living room.\n\nMore detail here.")
			Expect(parsed.ExecutiveSummary).To(Equal("Moderate smoke damage across the living room."))
			Expect(parsed.DetailedAssessment).To(HaveLen(1))
			Expect(parsed.DetailedAssessment[0].Area).To(Equal("General Assessment"))
			Expect(parsed.DetailedAssessment[0].Severity).To(Equal(api.SeverityModerate))
		})

		It("falls back to a generic priority when no disposition exists", func() {
			parsed := report.Parse("## Executive Summary\nLight residue only.")
			Expect(parsed.RestorationPriority).To(HaveLen(1))
			Expect(parsed.RestorationPriority[0].Priority).To(Equal(1))
			Expect(parsed.RestorationPriority[0].Area).To(Equal("General"))
			Expect(parsed.RestorationPriority[0].Action).To(Equal(api.ActionAssess))
		})

		It("builds priorities from bullets when the disposition has no table", func() {
			parsed := report.Parse("## Disposition\n\n- Carpet: remove and discard\n- Walls, wipe clean with sponge")
			Expect(parsed.RestorationPriority).To(HaveLen(2))
			Expect(parsed.RestorationPriority[0].Area).To(Equal("Carpet"))
			Expect(parsed.RestorationPriority[0].Action).To(Equal(api.ActionRemove))
			Expect(parsed.RestorationPriority[1].Area).To(Equal("Walls"))
			Expect(parsed.RestorationPriority[1].Action).To(Equal(api.ActionClean))
		})

		It("truncates an oversized summary section", func() {
			long := "## Executive Summary\n" + strings.Repeat("x", 2000)
			parsed := report.Parse(long)
			Expect(len([]rune(parsed.ExecutiveSummary))).To(BeNumerically("<=", 800))
		})
	})

	Context("heading styles", func() {
		It("recognizes bold headings", func() {
			parsed := report.Parse("**Executive Summary:**\nModerate damage in the den.")
			Expect(parsed.ExecutiveSummary).To(Equal("Moderate damage in the den."))
		})

		It("recognizes numbered headings carrying a known title", func() {
			parsed := report.Parse("1. Executive Summary\nTrace residue found.\n2. Disposition\n- Ducts: hepa vacuum")
			Expect(parsed.ExecutiveSummary).To(Equal("Trace residue found."))
			Expect(parsed.RestorationPriority[0].Action).To(Equal(api.ActionClean))
		})

		It("matches ordinal-prefixed markdown headings", func() {
			parsed := report.Parse("## 3. Executive Summary\nLight haze on windows.")
			Expect(parsed.ExecutiveSummary).To(Equal("Light haze on windows."))
		})

		It("does not let numbered list items end a section", func() {
			parsed := report.Parse("## Executive Summary\nOverview line.\n1. first point\n2. second point")
			Expect(parsed.ExecutiveSummary).To(ContainSubstring("second point"))
		})
	})

	It("is deterministic", func() {
		Expect(report.Parse(sampleReport)).To(Equal(report.Parse(sampleReport)))
	})
})

var _ = Describe("ExtractSeverity", func() {
	It("grades the highest keyword present", func() {
		Expect(report.ExtractSeverity("heavy and moderate damage")).To(Equal(api.SeverityHeavy))
		Expect(report.ExtractSeverity("Severe charring observed")).To(Equal(api.SeverityHeavy))
		Expect(report.ExtractSeverity("moderate deposits, light haze")).To(Equal(api.SeverityModerate))
		Expect(report.ExtractSeverity("light residue")).To(Equal(api.SeverityLight))
		Expect(report.ExtractSeverity("trace amounts only")).To(Equal(api.SeverityTrace))
		Expect(report.ExtractSeverity("surfaces are clean")).To(Equal(api.SeverityNone))
	})

	It("defaults to moderate when no keyword matches", func() {
		Expect(report.ExtractSeverity("residue of unknown extent")).To(Equal(api.SeverityModerate))
	})

	It("is not negation aware", func() {
		Expect(report.ExtractSeverity("no significant damage")).To(Equal(api.SeverityHeavy))
	})
})

var _ = Describe("ClassifyAction", func() {
	It("maps disposition phrases to actions", func() {
		Expect(report.ClassifyAction("remove and replace drywall")).To(Equal(api.ActionRemove))
		Expect(report.ClassifyAction("wipe down, then HEPA vacuum")).To(Equal(api.ActionClean))
		Expect(report.ClassifyAction("no action required, retain as is")).To(Equal(api.ActionNoAction))
		Expect(report.ClassifyAction("inspect further before deciding")).To(Equal(api.ActionAssess))
	})

	It("prefers removal over cleaning when both appear", func() {
		Expect(report.ClassifyAction("clean what is salvageable, discard the rest")).To(Equal(api.ActionRemove))
	})
})
