package generator

// Mode selects the prompt template, the reply parser and the artifact type.
type Mode int

const (
	ModeUnitPlan Mode = iota
	ModeE2EOutline
	ModeE2EPlan
	ModeUnitScript
	ModeE2EScript
)

func (m Mode) String() string {
	switch m {
	case ModeUnitPlan:
		return "unit plan"
	case ModeE2EOutline:
		return "e2e outline"
	case ModeE2EPlan:
		return "e2e plan"
	case ModeUnitScript:
		return "unit script"
	case ModeE2EScript:
		return "e2e script"
	default:
		return "unknown"
	}
}

// IsScript reports whether m produces k6 code.
func (m Mode) IsScript() bool {
	return m == ModeUnitScript || m == ModeE2EScript
}

type templateSpec struct {
	file        string
	placeholder string
	text        string
}

var templates = map[Mode]templateSpec{
	ModeUnitPlan:   {file: "plan_prompt.txt", placeholder: "{{operations}}", text: defaultPlanPrompt},
	ModeE2EOutline: {file: "e2e_outline_prompt.txt", placeholder: "{{spec}}", text: defaultE2EOutlinePrompt},
	ModeE2EPlan:    {file: "e2e_plan_prompt.txt", placeholder: "{{scenarios}}", text: defaultE2EPlanPrompt},
	ModeUnitScript: {file: "script_prompt.txt", placeholder: "{{test}}", text: defaultScriptPrompt},
	ModeE2EScript:  {file: "e2e_script_prompt.txt", placeholder: "{{scenario}}", text: defaultE2EScriptPrompt},
}

// TemplateFile returns the override file name for m.
func TemplateFile(m Mode) string { return templates[m].file }

// TemplatePlaceholder returns the placeholder an override for m must contain.
func TemplatePlaceholder(m Mode) string { return templates[m].placeholder }

const systemPrompt = `You are a senior performance engineer who writes k6 load tests in JavaScript.
Follow the requested output format exactly. Do not add commentary outside of it.`

const defaultPlanPrompt = `API: {{api_title}} (version {{api_version}})

Design functional load tests for the following API operations. Each operation is
given as JSON with its name, HTTP method, path and OpenAPI definition:

{{operations}}

For every operation produce one or more test entries. Reply with a single JSON
array and nothing else. Each element must have this shape:

{
  "name": "Get_User_By_Id_Basic",
  "method": "GET",
  "path": "/users/{id}",
  "description": "what the test checks",
  "expected_status": 200,
  "assertions": ["status is 200", "body has id"]
}

"method" and "path" must be copied exactly from the operation being tested.`

const defaultE2EOutlinePrompt = `Read the following OpenAPI document and propose end-to-end user journeys that
chain several operations together (create, read, update, delete, list and so on).

{{spec}}

Reply with a single JSON array and nothing else. Each element must have this shape:

{
  "name": "User_Signup_And_Profile_Update",
  "steps": ["POST /users - create a user", "GET /users/{id} - read it back"]
}`

const defaultE2EPlanPrompt = `API: {{api_title}} (version {{api_version}})

Expand each of these end-to-end scenario outlines into concrete steps:

{{scenarios}}

Reply with a single JSON array and nothing else, one element per scenario, keeping
each scenario's name unchanged:

{
  "name": "User_Signup_And_Profile_Update",
  "description": "what the journey covers",
  "steps": [
    {"name": "create user", "method": "POST", "path": "/users", "description": "...", "expected_status": 201}
  ]
}`

const defaultScriptPrompt = `API: {{api_title}} (version {{api_version}})

Write a k6 load test script for this planned test:

{{test}}

Requirements:
- read the target from __ENV.BASE_URL
- use check() for every assertion
- export default function and a small options block

Reply with the script in a single javascript code block.`

const defaultE2EScriptPrompt = `API: {{api_title}} (version {{api_version}})

Write a k6 load test script that runs this end-to-end scenario in order, passing
ids and tokens from earlier responses to later steps:

{{scenario}}

Requirements:
- read the target from __ENV.BASE_URL
- wrap each step in group() and check() its expected status
- export default function and a small options block

Reply with the script in a single javascript code block.`
