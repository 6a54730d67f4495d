package models

// DemoDeck returns the two-player "New Web App" table used for demonstrations
// and as the template written by `decidarch deck init`.
func DemoDeck() Deck {
	d := Deck{
		Players: []Player{
			{FirstName: "John", LastName: "Doe"},
			{FirstName: "Rick", LastName: "Harrington"},
		},
		Project: Project{
			Name:    "New Web App",
			Purpose: "Develop a scalable web application for e-commerce",
		},
		Stakeholders: []Stakeholder{
			{
				Role:       "Owner",
				Goal:       "Ensure project success",
				Priorities: Impact{"Availability": 3, "Security": 2, "Cost": 1},
			},
			{
				Role:       "User",
				Goal:       "Use the app effectively",
				Priorities: Impact{"Usability": 4, "Performance": 3, "Security": 1},
			},
		},
		Concerns: []Concern{
			{Description: "Security Breach", Impact: Impact{"Security": -2, "Performance": -1}},
			{Description: "Scalability Issue", Impact: Impact{"Availability": -1, "Performance": 2}},
			{Description: "Cost Reduction", Impact: Impact{"Cost": -2, "Maintainability": -1}},
		},
		Events: []Event{
			{
				Title:       "Budget Cut",
				Description: "Reduction in available budget",
				Consequence: "Resources are limited. Prioritize cost-saving measures.",
			},
			{
				Title:       "New Privacy Regulation",
				Description: "New data privacy regulations require higher security measures",
				Consequence: "Ensure compliance with strict privacy laws.",
			},
		},
	}
	for i := range d.Concerns {
		d.Concerns[i].ID = i + 1
	}
	return d
}
