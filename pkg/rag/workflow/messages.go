package workflow

const (
	GreetingText = "Hello! I'm your Personal Assistant. I'm here to help with general questions " +
		"or connect you to our specialists:\n\n" +
		"• **HR Agent** - for HR policies, leave requests, and employee benefits\n" +
		"• **IT Support** - for technical issues, security policies, and IT systems\n\n" +
		"How can I assist you today?"

	HandOffHRText = "Connecting you to our HR specialist now. How can they help you today?"
	HandOffITText = "Connecting you to our IT Support specialist now. How can they help you today?"

	UnknownTargetText = "I'd be happy to connect you to the right specialist. " +
		"Could you specify if you need HR or IT support?"

	GeneralDeclineText = "I can help with company-related questions or connect you to our HR or IT specialists. " +
		"Your question seems to be outside my area. Could you ask about company policies or services instead?"

	NoInformationText = "I couldn't find relevant information in the policy documents."

	TroubleshootSuffix = "\n\nIf this doesn't resolve your issue, let me know and I can help " +
		"create a JIRA ticket for further assistance."

	FollowUpText = "I'm sorry the previous solutions didn't resolve your issue. " +
		"Would you like me to create a JIRA ticket for further assistance? " +
		"An IT support technician will review your case and get back to you."
)
