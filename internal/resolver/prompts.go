// internal/resolver/prompts.go
package resolver

const classifySystemPrompt = `You analyze website forms.

Your task:
- Select the form that is meant to contact the company.
- If no such form is found, return an empty object.

Rules:
- Choose only ONE or ZERO forms.
- Prefer forms with a textarea for the message.
- Ignore newsletter, login, demo, search and checkout forms.
- Return JSON ONLY.

Output format:
{"form_index": <number>}

You may also include "field_mapping", an object mapping field ids of the
chosen form to one of these roles: name, first_name, last_name, email,
message, company, phone, subject, location, unknown.`

const mapSystemPrompt = `You are given a list of form fields (id, label, placeholder, name, type, tag, options) and a set of profile values.
For each field return the value to use. For fields not covered by the profile values, generate a realistic value.

Rules:
- For type="email", return a valid email string.
- For type="number" or "range", return a number.
- For checkboxes and radios, return true or false.
- For select fields, return one of the provided option values.
- For multiple selects, return an array of option values.
- Never return null.

Example output:
{"f0": "Peter Parker", "f1": "peter@example.com", "f2": 10}

Return a JSON object where keys are field ids and values are the final values to fill into the form.`
