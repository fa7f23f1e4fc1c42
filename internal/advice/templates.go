package advice

import "sort"

var registry = map[string]*Template{
	Measurement.Name: Measurement,
	Pricing.Name:     Pricing,
	BuildVsBuy.Name:  BuildVsBuy,
}

// Lookup returns the template served under name.
func Lookup(name string) (*Template, bool) {
	t, ok := registry[name]
	return t, ok
}

// Names lists every template name, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

var Measurement = &Template{
	Name:    "measurement",
	Title:   "Measurement Strategy",
	Subject: "measurement",
	Voice:   "a senior data scientist and executive",
	Sections: []Section{
		{Heading: "Basic framing", Fields: []Field{
			{Key: "decisionTitle", Label: "Decision title", Question: "Decision title", Required: true},
			{Key: "measurementSupport", Label: "Decisions supported", Question: "What decision(s) will this measurement support?", Required: true},
			{Key: "problemUnderstandControl", Label: "Problem to understand", Question: "What problem are we trying to understand or control?", Required: true},
		}},
		{Heading: "Metrics & outcomes", Fields: []Field{
			{Key: "primaryOutcomes", Label: "Primary outcomes", Question: "Primary business outcome(s)", Required: true},
			{Key: "leadingIndicators", Label: "Leading indicators", Question: "Leading indicators you believe matter today"},
			{Key: "laggingIndicators", Label: "Lagging indicators", Question: "Lagging indicators currently used"},
			{Key: "unintendedBehaviors", Label: "Unintended behaviors", Question: "What behaviors might this measurement unintentionally incentivize?"},
		}},
		{Heading: "Data & feasibility", Fields: []Field{
			{Key: "dataSources", Label: "Data sources", Question: "Available data sources", Required: true},
			{Key: "dataQualityLimitations", Label: "Data quality limitations", Question: "Known data quality limitations"},
			{Key: "measurementFrequency", Label: "Measurement frequency", Question: "Measurement frequency required", Required: true},
		}},
		{Heading: "Governance & risk", Fields: []Field{
			{Key: "whoUsesMeasurement", Label: "Who uses it", Question: "Who will use this measurement to make decisions?", Required: true},
			{Key: "decisionsNotToMake", Label: "Decisions not to make", Question: "What decisions should NOT be made using this metric?", Required: true},
			{Key: "successIn612Months", Label: "Success in 6-12 months", Question: "What would success look like in 6-12 months?", Required: true},
		}},
	},
	Approach: Guide{
		Heading: "Recommended Measurement Approach",
		Body: "Name the modelling or statistical method the exec should ask their analytics team to provide. Explain the method in plain language and why it is the best fit for this decision. " +
			"Where helpful, cite or link to whitepapers, industry standards, or similar approaches (e.g. causal inference, A/B testing frameworks, uplift modelling).",
	},
	Deliverable: Guide{
		Heading: "Output to request",
		Body: "Specify the type of deliverables the exec should ask for from the measurement: e.g. lift charts, dashboards, one-pagers for leadership, tracking reports, confidence intervals, sensitivity analyses. " +
			"Be concrete so they know what to request.",
	},
	Limits: Guide{
		Heading: "Known limitations and future considerations",
		Body: "Highlight the main limitations of this measurement type and what to watch for over time. " +
			"Give the exec guardrails: when to revisit the approach, what could invalidate the results, and how to evolve the measurement as the business or data changes.",
	},
	Guidance: "This is a Measurement Strategy decision. In your paragraphs, prioritize causal clarity over correlation, avoidance of vanity metrics, alignment between metrics and decisions, explicit behavioral incentives and risks, and governance and misuse prevention. " +
		"Where relevant, call out metrics that are proxies rather than outcomes, risk Goodhart's Law, or cannot realistically change decisions. If confidence is overstated in the context, name it as a risk in plain language.",
}

var Pricing = &Template{
	Name:    "pricing",
	Title:   "Pricing Strategy",
	Subject: "pricing",
	Voice:   "a pricing economist and commercial executive",
	Sections: []Section{
		{Heading: "Basic framing", Fields: []Field{
			{Key: "decisionTitle", Label: "Decision title", Question: "Decision title", Required: true},
			{Key: "productOrService", Label: "Product or service", Question: "Which product or service is being priced?", Required: true},
			{Key: "pricingObjective", Label: "Pricing objective", Question: "What is the pricing objective (revenue, margin, share, adoption)?", Required: true},
		}},
		{Heading: "Customers & value", Fields: []Field{
			{Key: "targetSegments", Label: "Target segments", Question: "Which customer segments are targeted?", Required: true},
			{Key: "valueDelivered", Label: "Value delivered", Question: "What value does the customer get, in their terms?"},
			{Key: "willingnessToPay", Label: "Willingness to pay", Question: "What evidence exists about willingness to pay?"},
		}},
		{Heading: "Market & cost", Fields: []Field{
			{Key: "competitorPricing", Label: "Competitor pricing", Question: "How do competitors or substitutes price today?", Required: true},
			{Key: "costStructure", Label: "Cost structure", Question: "What is the cost structure (unit cost, fixed cost, cost to serve)?"},
		}},
		{Heading: "Governance & risk", Fields: []Field{
			{Key: "constraints", Label: "Constraints", Question: "Contractual, regulatory or channel constraints on price changes"},
			{Key: "successIn612Months", Label: "Success in 6-12 months", Question: "What would success look like in 6-12 months?", Required: true},
		}},
	},
	Approach: Guide{
		Heading: "Recommended Pricing Approach",
		Body: "Name the pricing model and the research or test method the exec should commission (e.g. value-based pricing, Van Westendorp or Gabor-Granger surveys, conjoint analysis, price A/B tests). " +
			"Explain in plain language why it fits this product, segment and objective.",
	},
	Deliverable: Guide{
		Heading: "Output to request",
		Body: "Specify the deliverables to ask for: e.g. price-volume curves, margin waterfalls, segment-level elasticity estimates, packaging options, a rollout and grandfathering plan. " +
			"Be concrete so they know what to request.",
	},
	Limits: Guide{
		Heading: "Risks and guardrails",
		Body: "Highlight what could go wrong: churn of existing customers, channel conflict, competitive response, brand damage from discounting. " +
			"Give the exec guardrails: the signals that should trigger a rollback and when to revisit the price.",
	},
	Guidance: "This is a Pricing Strategy decision. In your paragraphs, prioritize customer value over cost-plus reasoning, segment differences in willingness to pay, the difference between list price and realized price, and reversibility of the change. " +
		"Call out assumptions about elasticity that are not backed by evidence in the context.",
}

var BuildVsBuy = &Template{
	Name:    "build-vs-buy",
	Title:   "Build vs Buy",
	Subject: "build-versus-buy",
	Voice:   "a CTO and procurement executive",
	Sections: []Section{
		{Heading: "Basic framing", Fields: []Field{
			{Key: "decisionTitle", Label: "Decision title", Question: "Decision title", Required: true},
			{Key: "capabilityNeeded", Label: "Capability needed", Question: "What capability is needed?", Required: true},
			{Key: "strategicImportance", Label: "Strategic importance", Question: "Is this capability a differentiator or a commodity for the business?", Required: true},
		}},
		{Heading: "Options", Fields: []Field{
			{Key: "vendorOptions", Label: "Vendor options", Question: "Which vendors or products are being considered?", Required: true},
			{Key: "internalCapacity", Label: "Internal capacity", Question: "What internal team and skills are available to build it?", Required: true},
		}},
		{Heading: "Cost & time", Fields: []Field{
			{Key: "budgetRange", Label: "Budget", Question: "Budget range, including ongoing cost"},
			{Key: "timeline", Label: "Timeline", Question: "When does the capability need to be live?", Required: true},
		}},
		{Heading: "Governance & risk", Fields: []Field{
			{Key: "integrationConstraints", Label: "Integration constraints", Question: "Integration, security or compliance constraints"},
			{Key: "lockInConcerns", Label: "Lock-in concerns", Question: "What lock-in or exit concerns exist?"},
			{Key: "successIn612Months", Label: "Success in 6-12 months", Question: "What would success look like in 6-12 months?"},
		}},
	},
	Approach: Guide{
		Heading: "Recommended Sourcing Approach",
		Body: "Recommend build, buy, or a hybrid, and name the evaluation method the exec should ask for (e.g. total cost of ownership model, weighted vendor scorecard, time-boxed proof of concept). " +
			"Explain in plain language why it fits this capability.",
	},
	Deliverable: Guide{
		Heading: "Output to request",
		Body: "Specify the deliverables to ask for: e.g. a three-year TCO comparison, vendor scorecards, a proof-of-concept report, an integration plan, an exit plan. " +
			"Be concrete so they know what to request.",
	},
	Limits: Guide{
		Heading: "Risks and guardrails",
		Body: "Highlight the main risks of the recommended path: hidden maintenance cost, vendor viability, lock-in, skills drain. " +
			"Give the exec guardrails: the checkpoints at which to revisit the decision and the signals that should trigger a switch.",
	},
	Guidance: "This is a Build vs Buy decision. In your paragraphs, prioritize strategic differentiation over sunk cost, total cost of ownership over sticker price, time to value, and the cost of reversing the decision later. " +
		"Call out optimism about internal delivery capacity or vendor roadmaps when the context does not support it.",
}
