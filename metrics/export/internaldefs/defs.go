package internaldefs

import (
	"github.com/nvoss/authgate"
)

// CounterDef names one engine counter for export.
type CounterDef struct {
	ID   authgate.MetricID
	Name string
	Help string
}

// CounterDefs lists every engine counter in export order.
var CounterDefs = []CounterDef{
	{ID: authgate.MetricLoginSuccess, Name: "authgate_login_success_total", Help: "Successful login attempts."},
	{ID: authgate.MetricLoginFailure, Name: "authgate_login_failure_total", Help: "Failed login attempts."},
	{ID: authgate.MetricLoginLocked, Name: "authgate_login_locked_total", Help: "Logins rejected by the lockout threshold."},
	{ID: authgate.MetricCaptchaFailed, Name: "authgate_captcha_failed_total", Help: "Rejected CAPTCHA responses."},
	{ID: authgate.MetricCaptchaBypassed, Name: "authgate_captcha_bypassed_total", Help: "CAPTCHA verifications skipped because no secret is configured."},
	{ID: authgate.MetricSessionCreated, Name: "authgate_session_created_total", Help: "Created sessions."},
	{ID: authgate.MetricSessionDestroyed, Name: "authgate_session_destroyed_total", Help: "Explicit logouts."},
	{ID: authgate.MetricResetRequested, Name: "authgate_password_reset_request_total", Help: "Password reset requests."},
	{ID: authgate.MetricResetConfirmSuccess, Name: "authgate_password_reset_confirm_success_total", Help: "Successful password reset confirmations."},
	{ID: authgate.MetricResetConfirmFailure, Name: "authgate_password_reset_confirm_failure_total", Help: "Failed password reset confirmations."},
	{ID: authgate.MetricProfileUpdated, Name: "authgate_profile_updated_total", Help: "Successful profile updates."},
	{ID: authgate.MetricMailFailure, Name: "authgate_mail_failure_total", Help: "Reset mails that could not be dispatched."},
	{ID: authgate.MetricStorageFault, Name: "authgate_storage_fault_total", Help: "Operations aborted by store errors."},
}

// The audit-drop counter lives in the dispatcher, outside the MetricID
// space, but is exported alongside the engine counters.
const (
	AuditDroppedName = "authgate_audit_dropped_total"
	AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
)
