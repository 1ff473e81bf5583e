// Package prompt builds the instruction text sent to the vision model.
package prompt

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/homefix-vision/internal/domain/diagnosis"
)

const resultSchema = `{
  "summary": "<string>",
  "tools": ["<string>"],
  "steps": ["<string>"],
  "safetyWarnings": {
    "hazardousMaterials": ["<string>"],
    "ageRelated": <true|false>,
    "generalWarnings": ["<string>"]
  },
  "imageDescriptions": ["<string>"]
}`

// Build selects the template for the request's mode. Initial prompts carry the images
// with high detail; follow-up prompts rely on the stored image descriptions instead.
func Build(req diagnosis.AnalysisRequest) diagnosis.Prompt {
	if req.Mode == diagnosis.ModeFollowUp {
		return diagnosis.Prompt{Mode: req.Mode, Text: followUpText(req)}
	}
	images := make([]diagnosis.ImageAttachment, 0, len(req.Images))
	for _, url := range req.Images {
		images = append(images, diagnosis.ImageAttachment{URL: url, Detail: diagnosis.DetailHigh})
	}
	return diagnosis.Prompt{Mode: diagnosis.ModeInitial, Text: initialText(req), Images: images}
}

func initialText(req diagnosis.AnalysisRequest) string {
	var b strings.Builder

	b.WriteString("You are a home repair expert and building safety inspector. ")
	fmt.Fprintf(&b, "Analyze the %s of a home repair issue and do the following:\n\n", imageNoun(len(req.Images)))

	b.WriteString("1. For each image, in order, write a detailed technical description: materials, fixtures, " +
		"visible damage, dimensions you can estimate, brand markings and surrounding context. It must be " +
		"detailed enough to answer later questions without seeing the image again.\n")
	b.WriteString("2. Estimate the era the home was built from visible clues (fixtures, materials, construction " +
		"methods). If it was likely built before 1990, set safetyWarnings.ageRelated to true.\n")
	b.WriteString("3. Cross-reference every visible material against this hazardous materials list and name " +
		"each possible match in safetyWarnings.hazardousMaterials:\n")
	writeHazards(&b)
	b.WriteString("4. Give a brief summary of the issue, the tools required, and step-by-step repair " +
		"instructions. Put any other safety precautions in safetyWarnings.generalWarnings.\n")

	if d := strings.TrimSpace(req.Description); d != "" {
		fmt.Fprintf(&b, "5. The homeowner asks: %q. Answer this question directly in the summary "+
			"and adjust the steps to it.\n", d)
	}

	b.WriteString("\nRespond with exactly one JSON object with these five fields and nothing else:\n")
	b.WriteString(resultSchema)
	b.WriteString("\n\nimageDescriptions must contain one entry per image, in the order given. " +
		"Do not use markdown, code fences or any text outside the JSON object.")

	return b.String()
}

func followUpText(req diagnosis.AnalysisRequest) string {
	var b strings.Builder

	b.WriteString("You are a home repair expert continuing a conversation with a homeowner about a repair " +
		"you already analyzed from photos.\n\n")

	fmt.Fprintf(&b, "Follow-up question: %q\n\n", strings.TrimSpace(req.Description))

	b.WriteString("Image descriptions from the original analysis:\n")
	if len(req.PriorImageDescriptions) == 0 {
		b.WriteString("(none)\n")
	}
	for i, d := range req.PriorImageDescriptions {
		fmt.Fprintf(&b, "Image %d: %s\n", i+1, d)
	}

	b.WriteString("\nPrevious analysis:\n")
	writeAnalysis(&b, req.PriorAnalysis)

	b.WriteString("\nAnswer the follow-up question directly. Start the summary with \"Regarding your question " +
		"about ...\" and update tools, steps and safetyWarnings where the answer changes them; otherwise " +
		"repeat them. Copy imageDescriptions unchanged from the list above so later questions keep the " +
		"same context.\n")
	b.WriteString("\nRespond with exactly one JSON object with these five fields and nothing else:\n")
	b.WriteString(resultSchema)
	b.WriteString("\n\nDo not use markdown, code fences or any text outside the JSON object.")

	return b.String()
}

func writeHazards(b *strings.Builder) {
	for _, c := range HazardousMaterials {
		fmt.Fprintf(b, "   - %s: %s\n", c.Name, strings.Join(c.Items, "; "))
	}
}

func writeAnalysis(b *strings.Builder, a *diagnosis.AnalysisResult) {
	if a == nil {
		b.WriteString("(none)\n")
		return
	}
	fmt.Fprintf(b, "Summary: %s\n", a.Summary)
	fmt.Fprintf(b, "Tools: %s\n", joinOrNone(a.Tools, ", "))
	b.WriteString("Steps:\n")
	if len(a.Steps) == 0 {
		b.WriteString("(none)\n")
	}
	for i, s := range a.Steps {
		fmt.Fprintf(b, "%d. %s\n", i+1, s)
	}
	b.WriteString("Safety warnings:\n")
	fmt.Fprintf(b, "- Hazardous materials: %s\n", joinOrNone(a.SafetyWarnings.HazardousMaterials, "; "))
	fmt.Fprintf(b, "- Pre-1990 home: %s\n", yesNo(a.SafetyWarnings.AgeRelated))
	fmt.Fprintf(b, "- General warnings: %s\n", joinOrNone(a.SafetyWarnings.GeneralWarnings, "; "))
	b.WriteString("Image descriptions:\n")
	if len(a.ImageDescriptions) == 0 {
		b.WriteString("(none)\n")
	}
	for i, d := range a.ImageDescriptions {
		fmt.Fprintf(b, "Image %d: %s\n", i+1, d)
	}
}

func imageNoun(n int) string {
	if n == 1 {
		return "image"
	}
	return fmt.Sprintf("%d images", n)
}

func joinOrNone(items []string, sep string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, sep)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
