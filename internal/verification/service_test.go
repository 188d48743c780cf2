package verification

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/tchova-digital/portal/internal/notification"
)

// captureNotifier records delivered messages so tests can read the
// plaintext code the way a client would off their phone.
type captureNotifier struct {
	messages []notification.Message
}

func (n *captureNotifier) Send(_ context.Context, msg notification.Message) error {
	n.messages = append(n.messages, msg)
	return nil
}

var codeInBody = regexp.MustCompile(`[0-9]{3} [0-9]{3}`)

func (n *captureNotifier) lastCode(t *testing.T) string {
	t.Helper()
	if len(n.messages) == 0 {
		t.Fatalf("no messages delivered")
	}
	match := codeInBody.FindString(n.messages[len(n.messages)-1].Body)
	if match == "" {
		t.Fatalf("no code found in body %q", n.messages[len(n.messages)-1].Body)
	}
	return strings.ReplaceAll(match, " ", "")
}

func newTestService(notifier notification.Notifier, opts Options) *Service {
	return NewService(NewMemoryCodeStore(), NewMemorySessionStore(), notifier, opts)
}

func TestIssueAndVerifySuccess(t *testing.T) {
	notifier := &captureNotifier{}
	svc := newTestService(notifier, Options{})
	ctx := context.Background()

	issued, err := svc.IssueCode(ctx, "PRJ-001", "+25884123456")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !issued.ExpiresAt.After(time.Now()) {
		t.Fatalf("expected future expiry, got %v", issued.ExpiresAt)
	}
	if notifier.messages[0].Kind != notification.KindVerificationCode {
		t.Fatalf("unexpected notification kind %q", notifier.messages[0].Kind)
	}

	res := svc.Verify(ctx, "PRJ-001", notifier.lastCode(t))
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}

	session, found, err := svc.Session(ctx, "PRJ-001")
	if err != nil || !found {
		t.Fatalf("expected live session, found=%v err=%v", found, err)
	}
	if session.ProjectID != "PRJ-001" {
		t.Fatalf("unexpected session project %q", session.ProjectID)
	}
}

func TestVerifyCodeIsSingleUse(t *testing.T) {
	notifier := &captureNotifier{}
	svc := newTestService(notifier, Options{})
	ctx := context.Background()

	if _, err := svc.IssueCode(ctx, "PRJ-001", "+25884123456"); err != nil {
		t.Fatalf("issue: %v", err)
	}
	code := notifier.lastCode(t)

	if res := svc.Verify(ctx, "PRJ-001", code); !res.Success {
		t.Fatalf("first verify failed: %+v", res)
	}
	if res := svc.Verify(ctx, "PRJ-001", code); !errors.Is(res.Err, ErrAlreadyUsed) {
		t.Fatalf("expected already-used error, got %+v", res)
	}
}

func TestVerifyWrongCodeCountsDownThenBlocks(t *testing.T) {
	notifier := &captureNotifier{}
	svc := newTestService(notifier, Options{})
	ctx := context.Background()

	if _, err := svc.IssueCode(ctx, "PRJ-001", "+25884123456"); err != nil {
		t.Fatalf("issue: %v", err)
	}
	correct := notifier.lastCode(t)
	wrong := "000000"
	if wrong == correct {
		wrong = "000001"
	}

	res := svc.Verify(ctx, "PRJ-001", wrong)
	if !errors.Is(res.Err, ErrCodeMismatch) || res.RemainingAttempts != 2 {
		t.Fatalf("first failure: %+v", res)
	}

	res = svc.Verify(ctx, "PRJ-001", wrong)
	if !errors.Is(res.Err, ErrCodeMismatch) || res.RemainingAttempts != 1 {
		t.Fatalf("second failure: %+v", res)
	}

	res = svc.Verify(ctx, "PRJ-001", wrong)
	if !res.Blocked || res.RemainingAttempts != 0 {
		t.Fatalf("third failure should block: %+v", res)
	}

	// A fourth attempt is rejected even with the correct code.
	res = svc.Verify(ctx, "PRJ-001", correct)
	if !res.Blocked || !errors.Is(res.Err, ErrBlocked) {
		t.Fatalf("expected blocked result, got %+v", res)
	}
	if res.BlockedUntil.IsZero() {
		t.Fatalf("expected blocked-until timestamp")
	}
}

func TestVerifyAfterBlockWindowNeedsFreshCode(t *testing.T) {
	notifier := &captureNotifier{}
	svc := newTestService(notifier, Options{BlockTTL: 30 * time.Millisecond})
	ctx := context.Background()

	if _, err := svc.IssueCode(ctx, "PRJ-001", "+25884123456"); err != nil {
		t.Fatalf("issue: %v", err)
	}
	correct := notifier.lastCode(t)
	wrong := "000000"
	if wrong == correct {
		wrong = "000001"
	}

	for i := 0; i < 3; i++ {
		svc.Verify(ctx, "PRJ-001", wrong)
	}

	time.Sleep(50 * time.Millisecond)

	// The old issuance stays dead after the block elapses.
	if res := svc.Verify(ctx, "PRJ-001", correct); !errors.Is(res.Err, ErrExpired) {
		t.Fatalf("expected dead code after block window, got %+v", res)
	}

	// A new issuance proceeds normally.
	if _, err := svc.IssueCode(ctx, "PRJ-001", "+25884123456"); err != nil {
		t.Fatalf("reissue: %v", err)
	}
	if res := svc.Verify(ctx, "PRJ-001", notifier.lastCode(t)); !res.Success {
		t.Fatalf("fresh code should verify: %+v", res)
	}
}

func TestVerifyExpiredCode(t *testing.T) {
	notifier := &captureNotifier{}
	svc := newTestService(notifier, Options{CodeTTL: 20 * time.Millisecond})
	ctx := context.Background()

	if _, err := svc.IssueCode(ctx, "PRJ-001", "+25884123456"); err != nil {
		t.Fatalf("issue: %v", err)
	}
	code := notifier.lastCode(t)

	time.Sleep(40 * time.Millisecond)

	if res := svc.Verify(ctx, "PRJ-001", code); !errors.Is(res.Err, ErrExpired) {
		t.Fatalf("expected expired error, got %+v", res)
	}
}

func TestVerifyMalformedInputFailsFast(t *testing.T) {
	svc := newTestService(&captureNotifier{}, Options{})

	for _, input := range []string{"", "12345", "1234567", "12a456", "123 56"} {
		if res := svc.Verify(context.Background(), "PRJ-001", input); !errors.Is(res.Err, ErrInvalidFormat) {
			t.Fatalf("expected format error for %q, got %+v", input, res)
		}
	}
}

func TestVerifyWithoutIssuedCode(t *testing.T) {
	svc := newTestService(&captureNotifier{}, Options{})

	if res := svc.Verify(context.Background(), "PRJ-404", "123456"); !errors.Is(res.Err, ErrNoCode) {
		t.Fatalf("expected no-code error, got %+v", res)
	}
}

func TestReissueSupersedesActiveCode(t *testing.T) {
	notifier := &captureNotifier{}
	svc := newTestService(notifier, Options{})
	ctx := context.Background()

	if _, err := svc.IssueCode(ctx, "PRJ-001", "+25884123456"); err != nil {
		t.Fatalf("issue: %v", err)
	}
	first := notifier.lastCode(t)

	if _, err := svc.IssueCode(ctx, "PRJ-001", "+25884123456"); err != nil {
		t.Fatalf("reissue: %v", err)
	}
	second := notifier.lastCode(t)

	if first != second {
		if res := svc.Verify(ctx, "PRJ-001", first); res.Success {
			t.Fatalf("superseded code must not verify")
		}
	}
	if res := svc.Verify(ctx, "PRJ-001", second); !res.Success {
		t.Fatalf("active code should verify: %+v", res)
	}
}

func TestCheckActionGate(t *testing.T) {
	notifier := &captureNotifier{}
	svc := newTestService(notifier, Options{})
	ctx := context.Background()

	// Non-sensitive actions bypass the gate entirely.
	dec, err := svc.CheckAction(ctx, "PRJ-001", "view_timeline")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if dec.Required || !dec.Allowed {
		t.Fatalf("expected bypass, got %+v", dec)
	}

	// Sensitive actions demand a code while no session exists.
	dec, err = svc.CheckAction(ctx, "PRJ-001", "download_final_files")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !dec.Required || dec.Allowed {
		t.Fatalf("expected verification demand, got %+v", dec)
	}

	if _, err := svc.IssueCode(ctx, "PRJ-001", "+25884123456"); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if res := svc.Verify(ctx, "PRJ-001", notifier.lastCode(t)); !res.Success {
		t.Fatalf("verify: %+v", res)
	}
	if err := svc.MarkActionVerified(ctx, "PRJ-001", "download_final_files"); err != nil {
		t.Fatalf("mark: %v", err)
	}

	// Already-verified action passes without a new prompt.
	dec, err = svc.CheckAction(ctx, "PRJ-001", "download_final_files")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !dec.Allowed {
		t.Fatalf("expected allowed action, got %+v", dec)
	}

	// A different sensitive action still needs its own approval.
	dec, err = svc.CheckAction(ctx, "PRJ-001", "view_payment_details")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if dec.Allowed {
		t.Fatalf("expected demand for unverified action, got %+v", dec)
	}
}

func TestSecureSessionExpires(t *testing.T) {
	notifier := &captureNotifier{}
	svc := newTestService(notifier, Options{SessionTTL: 20 * time.Millisecond})
	ctx := context.Background()

	if _, err := svc.IssueCode(ctx, "PRJ-001", "+25884123456"); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if res := svc.Verify(ctx, "PRJ-001", notifier.lastCode(t)); !res.Success {
		t.Fatalf("verify: %+v", res)
	}
	if err := svc.MarkActionVerified(ctx, "PRJ-001", "download_final_files"); err != nil {
		t.Fatalf("mark: %v", err)
	}

	time.Sleep(40 * time.Millisecond)

	if _, found, _ := svc.Session(ctx, "PRJ-001"); found {
		t.Fatalf("expected expired session to be absent")
	}
	dec, err := svc.CheckAction(ctx, "PRJ-001", "download_final_files")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if dec.Allowed {
		t.Fatalf("expired session must not authorize actions")
	}
}

func TestLogoutDestroysSession(t *testing.T) {
	notifier := &captureNotifier{}
	svc := newTestService(notifier, Options{})
	ctx := context.Background()

	if _, err := svc.IssueCode(ctx, "PRJ-001", "+25884123456"); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if res := svc.Verify(ctx, "PRJ-001", notifier.lastCode(t)); !res.Success {
		t.Fatalf("verify: %+v", res)
	}

	if err := svc.Logout(ctx, "PRJ-001"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, found, _ := svc.Session(ctx, "PRJ-001"); found {
		t.Fatalf("expected session gone after logout")
	}
}

func TestRequiresVerificationAllowList(t *testing.T) {
	for _, action := range []string{
		"view_payment_details", "request_project_change", "download_final_files",
		"approve_milestone", "generate_new_link", "update_contact_info",
	} {
		if !RequiresVerification(action) {
			t.Fatalf("expected %q to require verification", action)
		}
	}
	for _, action := range []string{"view_timeline", "", "DOWNLOAD_FINAL_FILES"} {
		if RequiresVerification(action) {
			t.Fatalf("expected %q to bypass verification", action)
		}
	}
}
