package catalog

func scale(labels ...string) []Choice {
	values := []float64{2, 5, 8, 10}
	out := make([]Choice, len(labels))
	for i, l := range labels {
		out[i] = Choice{Label: l, Value: values[i]}
	}
	return out
}

var (
	ageChoices    = scale("Under 20", "20-30", "30-45", "Above 45")
	genderChoices = []Choice{{Label: "Male", Value: 0}, {Label: "Female", Value: 1}}
)

var defaultQuestions = []Question{
	{ID: "FRUITS_VEGGIES", Title: "Fruit & Vegetable Intake",
		Prompt:  "How often do you consume nutritious foods like fruits and vegetables?",
		Choices: scale("Rarely", "Sometimes", "Often", "Daily")},
	{ID: "DAILY_STRESS", Title: "Daily Stress Level",
		Prompt:  "How much mental pressure or stress do you experience daily?",
		Choices: scale("Very Low", "Moderate", "High", "Extreme")},
	{ID: "PLACES_VISITED", Title: "Recreation & Travel",
		Prompt:  "How often do you visit new places or engage in recreational activities?",
		Choices: scale("Almost Never", "Occasionally", "Regularly", "Very Frequently")},
	{ID: "CORE_CIRCLE", Title: "Support System",
		Prompt:  "How strong is your close support circle of friends or family?",
		Choices: scale("Very Weak", "Average", "Strong", "Very Strong")},
	{ID: "SUPPORTING_OTHERS", Title: "Helping Others",
		Prompt:  "How often do you provide emotional or practical support to others?",
		Choices: scale("Rarely", "Sometimes", "Often", "Very Often")},
	{ID: "SOCIAL_NETWORK", Title: "Social Interaction",
		Prompt:  "How socially connected do you feel with others?",
		Choices: scale("Isolated", "Moderate", "Active", "Highly Connected")},
	{ID: "ACHIEVEMENT", Title: "Sense of Achievement",
		Prompt:  "How satisfied do you feel about your accomplishments?",
		Choices: scale("Very Low", "Moderate", "High", "Very High")},
	{ID: "DONATION", Title: "Charitable Contribution",
		Prompt:  "How often do you contribute to society through charity or volunteering?",
		Choices: scale("Never", "Occasionally", "Regularly", "Frequently")},
	{ID: "BMI_RANGE", Title: "Physical Health",
		Prompt:  "How would you rate your physical health and fitness level?",
		Choices: scale("Poor", "Average", "Good", "Excellent")},
	{ID: "TODO_COMPLETED", Title: "Task Completion",
		Prompt:  "How effectively do you complete your planned daily tasks?",
		Choices: scale("Rarely Complete Tasks", "Sometimes", "Often", "Always")},
	{ID: "FLOW", Title: "Focus & Flow State",
		Prompt:  "How often do you feel deeply focused and engaged in activities?",
		Choices: scale("Rarely", "Sometimes", "Often", "Very Frequently")},
	{ID: "DAILY_STEPS", Title: "Physical Activity",
		Prompt:  "How active are you physically during a typical day?",
		Choices: scale("Very Low Activity", "Moderate", "Active", "Highly Active")},
	{ID: "LIVE_VISION", Title: "Life Vision Clarity",
		Prompt:  "How clear are you about your future goals and direction?",
		Choices: scale("Very Unclear", "Somewhat Clear", "Clear", "Very Clear")},
	{ID: "SLEEP_HOURS", Title: "Sleep Quality",
		Prompt:  "How would you rate your sleep duration and quality?",
		Choices: scale("Poor", "Average", "Good", "Excellent")},
	{ID: "LOST_VACATION", Title: "Work-Life Breaks",
		Prompt:  "How often do you miss vacations or relaxation opportunities due to work?",
		Choices: scale("Very Often", "Sometimes", "Rarely", "Never")},
	{ID: "DAILY_SHOUTING", Title: "Emotional Stability",
		Prompt:  "How often do you experience emotional outbursts like anger or frustration?",
		Choices: scale("Very Often", "Sometimes", "Rarely", "Never")},
	{ID: "SUFFICIENT_INCOME", Title: "Financial Satisfaction",
		Prompt:  "How satisfied are you with your income relative to your needs?",
		Choices: scale("Not Sufficient", "Barely Enough", "Comfortable", "Very Comfortable")},
	{ID: "PERSONAL_AWARDS", Title: "Recognition & Appreciation",
		Prompt:  "How often do you receive recognition or appreciation for your efforts?",
		Choices: scale("Rarely", "Sometimes", "Often", "Very Often")},
	{ID: "TIME_FOR_PASSION", Title: "Time for Personal Interests",
		Prompt:  "How much time do you spend on hobbies or activities you enjoy?",
		Choices: scale("Almost None", "Limited", "Good Amount", "Plenty")},
	{ID: "WEEKLY_MEDITATION", Title: "Mindfulness / Meditation",
		Prompt:  "How frequently do you practice relaxation or mindfulness activities?",
		Choices: scale("Never", "Occasionally", "Regularly", "Daily")},
	{ID: "AGE", Title: "Age", Prompt: "Please select your age range.", Choices: ageChoices},
	{ID: "GENDER", Title: "Gender", Prompt: "Please select your gender.", Choices: genderChoices},
}

// Default returns the built-in 22-question lifestyle catalog.
func Default() *Catalog {
	return MustNew(defaultQuestions)
}
