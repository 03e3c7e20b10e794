package classifier

import (
	"strings"

	"ai-policydesk-be/pkg/rag/agent"
)

func generalPrompt() string {
	var prompt strings.Builder

	prompt.WriteString("<system>\n")
	prompt.WriteString("You are the intent classifier of a company Personal Assistant.\n")
	prompt.WriteString("You do NOT answer questions. You only classify the message.\n")
	prompt.WriteString("</system>\n\n")

	prompt.WriteString("<intents>\n")
	prompt.WriteString("transfer_request - the user EXPLICITLY asks for HR or IT support\n")
	prompt.WriteString("  \"I need to talk to HR\" -> transfer_request (hr)\n")
	prompt.WriteString("  \"Can I speak with IT support?\" -> transfer_request (it)\n")
	prompt.WriteString("greeting - the user greets or starts the conversation (\"Hello\", \"Good morning\")\n")
	prompt.WriteString("general_query - general company questions, including HR or IT topics when no specialist is requested\n")
	prompt.WriteString("out_of_scope - anything unrelated to the company (weather, jokes, world facts)\n")
	prompt.WriteString("</intents>\n\n")

	prompt.WriteString("<rules>\n")
	prompt.WriteString("- Only classify as transfer_request when the department is explicitly requested\n")
	prompt.WriteString("- If unsure, classify as general_query\n")
	prompt.WriteString("</rules>\n\n")

	prompt.WriteString("Respond in this exact format:\n")
	prompt.WriteString("INTENT: <intent>\n")
	prompt.WriteString("TARGET: <hr|it|none>\n")
	prompt.WriteString("REASON: <brief reason>")

	return prompt.String()
}

func specialistPrompt(p agent.Profile) string {
	var prompt strings.Builder

	prompt.WriteString("<system>\n")
	prompt.WriteString("You are the intent classifier of the " + p.Name + ".\n")
	prompt.WriteString("The " + p.Name + " covers " + p.Domain + ".\n")
	prompt.WriteString("You do NOT answer questions. You only classify the message.\n")
	prompt.WriteString("</system>\n\n")

	prompt.WriteString("<intents>\n")
	prompt.WriteString("policy_query - a SPECIFIC question about a company policy that needs the policy documents\n")
	prompt.WriteString("  \"What is the sick leave policy?\", \"What is the password policy for remote access?\"\n")
	prompt.WriteString("ambiguous - too broad to answer without a follow-up question\n")
	prompt.WriteString("  \"what is the leave policy\" (which leave type?), \"tell me about HR\"\n")
	if p.SupportsTroubleshooting {
		prompt.WriteString("troubleshooting - the user reports a technical problem and wants steps to fix it\n")
		prompt.WriteString("  \"My VPN keeps disconnecting\", \"I can't log in to my laptop\"\n")
		prompt.WriteString("follow_up_issue - the user says earlier troubleshooting steps did not help\n")
		prompt.WriteString("  \"That didn't work\", \"Still broken after restarting\"\n")
	}
	prompt.WriteString("out_of_scope - not about company policies or outside this specialist's area\n")
	prompt.WriteString("</intents>\n\n")

	prompt.WriteString("<categories>\n")
	prompt.WriteString("HR - hiring, termination, probation, employee rights\n")
	prompt.WriteString("Leave - annual leave, sick leave, maternity, carry-forward\n")
	prompt.WriteString("IT - security, devices, passwords, VPN\n")
	prompt.WriteString("Compliance - data privacy, code of conduct, regulations\n")
	prompt.WriteString("General - general company information\n")
	prompt.WriteString("</categories>\n\n")

	prompt.WriteString("Respond in this exact format:\n")
	prompt.WriteString("INTENT: <intent>\n")
	prompt.WriteString("CATEGORY: <category>\n")
	prompt.WriteString("REASON: <brief reason>")

	return prompt.String()
}
