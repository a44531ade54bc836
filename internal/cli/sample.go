package cli

import "study-quiz-service/internal/domain"

// sampleQuizzes is served when neither Postgres nor the backend API is configured.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"cell-biology": {
			ID:              "cell-biology",
			Title:           "Cell Biology Basics",
			SubjectID:       "biology",
			DurationMinutes: 5,
			PassingScore:    1,
			Questions: []domain.Question{
				{
					Text:          "Which organelle produces most of the cell's ATP?",
					Options:       []string{"Nucleus", "Mitochondrion", "Ribosome", "Golgi apparatus"},
					CorrectOption: 1,
					Explanation:   "Oxidative phosphorylation happens in the inner mitochondrial membrane.",
				},
				{
					Text:          "Where are proteins synthesised?",
					Options:       []string{"Ribosomes", "Lysosomes", "Vacuoles", "Cell wall"},
					CorrectOption: 0,
					Explanation:   "Ribosomes translate mRNA into polypeptide chains.",
				},
				{
					Text:          "Which structure controls what enters and leaves the cell?",
					Options:       []string{"Cytoplasm", "Nucleolus", "Cell membrane", "Centriole"},
					CorrectOption: 2,
					Explanation:   "The phospholipid bilayer is selectively permeable.",
				},
			},
		},
		"arithmetic": {
			ID:    "arithmetic",
			Title: "Mental Arithmetic",
			Questions: []domain.Question{
				{Text: "What is 7 x 8?", Options: []string{"54", "56", "64", "58"}, CorrectOption: 1},
				{Text: "What is 144 / 12?", Options: []string{"11", "14", "12", "13"}, CorrectOption: 2},
			},
		},
	}
}
