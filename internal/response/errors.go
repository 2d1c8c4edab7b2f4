package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionActive      ErrCode = "SESSION_ALREADY_ACTIVE"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden ErrCode = "FORBIDDEN"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Quiz-specific ─────────────────────────────────────────────────
	ErrHomeworkCompleted   ErrCode = "HOMEWORK_ALREADY_COMPLETED"
	ErrNoQuestions         ErrCode = "NO_QUESTIONS"
	ErrQuestionsNotReady   ErrCode = "QUESTIONS_NOT_READY"
	ErrQuestionNotInQuiz   ErrCode = "QUESTION_NOT_IN_HOMEWORK"
	ErrSubmissionInFlight  ErrCode = "SUBMISSION_IN_FLIGHT"
	ErrQuestionNotActive   ErrCode = "QUESTION_NOT_ACTIVE"
	ErrResultNotAvailable  ErrCode = "RESULT_NOT_AVAILABLE"
	ErrNavigationForbidden ErrCode = "NAVIGATION_FORBIDDEN"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Student code or password is incorrect."
	case ErrSessionActive:
		return "You are already logged in on another device."
	case ErrSessionInvalidated:
		return "Your session has ended. Please log in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "The ID format is invalid."
	case ErrInvalidPayload:
		return "The request payload is invalid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "The requested resource was not found."
	case ErrConflict:
		return "The resource already exists."

	// ─── Quiz-specific ─────────────────────────────────────────────────
	case ErrHomeworkCompleted:
		return "This homework has already been answered."
	case ErrNoQuestions:
		return "This homework has no questions."
	case ErrQuestionsNotReady:
		return "Questions for this homework are still being generated."
	case ErrQuestionNotInQuiz:
		return "The question does not belong to this homework."
	case ErrSubmissionInFlight:
		return "A submission for this question is already being processed."
	case ErrQuestionNotActive:
		return "This question has already been answered."
	case ErrResultNotAvailable:
		return "The result has not been evaluated yet."
	case ErrNavigationForbidden:
		return "Leaving the session is not allowed while answering."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
