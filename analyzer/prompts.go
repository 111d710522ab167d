package analyzer

import "fmt"

func classificationSystemPrompt(martialArt string) string {
	return fmt.Sprintf(
		"You are an expert %s instructor. You classify techniques from pose keypoint sequences. "+
			"Answer with a JSON object containing \"technique\" (string), \"confidence\" (0..1), "+
			"\"key_characteristics\" (array of strings) and \"improvements\" (array of strings).",
		martialArt)
}

func classificationUserPrompt(martialArt, sequence string, threshold float64) string {
	return fmt.Sprintf(
		"Classify the %s technique shown in this pose sequence. "+
			"Only name a technique when your confidence is at least %.2f.\n\nPose sequence:\n%s",
		martialArt, threshold, sequence)
}

func qualitySystemPrompt() string {
	return "You are a martial arts examiner. You score technique executions from pose keypoint " +
		"sequences. Answer with a JSON object containing \"overall_score\" (0..10), \"criteria\" " +
		"(object mapping form, timing, power and balance to 0..10 scores), \"feedback\" (string) " +
		"and \"recommendations\" (array of strings)."
}

func qualityUserPrompt(technique, martialArt, sequence string) string {
	return fmt.Sprintf(
		"Assess the execution quality of the %s technique %q shown in this pose sequence.\n\nPose sequence:\n%s",
		martialArt, technique, sequence)
}

func comparisonSystemPrompt() string {
	return "You are a martial arts examiner comparing two executions of a technique. Answer with " +
		"a JSON object containing \"relative_quality\" (string), \"key_differences\" (array of " +
		"strings), \"strengths\" and \"weaknesses\" (objects mapping sequence_a and sequence_b to " +
		"arrays of strings) and \"recommendations\" (object mapping sequence_a and sequence_b to strings)."
}

func comparisonUserPrompt(martialArt, sequenceA, sequenceB string) string {
	return fmt.Sprintf(
		"Compare these two %s executions.\n\nSequence A:\n%s\n\nSequence B:\n%s",
		martialArt, sequenceA, sequenceB)
}
