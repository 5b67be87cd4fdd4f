package capture

import (
	"errors"
	"testing"
)

func TestResolve_ExplicitDeviceID(t *testing.T) {
	// deviceIDはfacingModeより優先される
	enumerator := NewMockEnumerator(
		MockDevice{Name: "cam0", FrontFacing: true},
		MockDevice{Name: "cam1", FrontFacing: false},
	)

	capturer, isFront, err := Resolve(enumerator, "cam1", "user", NewLogEventsHandler())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	mock, ok := capturer.(*MockCapturer)
	if !ok {
		t.Fatalf("Expected MockCapturer, got %T", capturer)
	}

	if mock.DeviceName() != "cam1" {
		t.Errorf("Expected device cam1, got %s", mock.DeviceName())
	}

	// facingMode制約と矛盾していても、デバイスの実際の向きが返る
	if isFront {
		t.Error("Expected isFront to be false for cam1")
	}
}

func TestResolve_FacingModeEnvironment(t *testing.T) {
	// シナリオ: {facingMode: "environment"}, devices [(cam0, front), (cam1, back)]
	enumerator := NewMockEnumerator(
		MockDevice{Name: "cam0", FrontFacing: true},
		MockDevice{Name: "cam1", FrontFacing: false},
	)

	capturer, isFront, err := Resolve(enumerator, "", "environment", NewLogEventsHandler())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	mock := capturer.(*MockCapturer)
	if mock.DeviceName() != "cam1" {
		t.Errorf("Expected device cam1, got %s", mock.DeviceName())
	}

	if isFront {
		t.Error("Expected isFront to be false")
	}
}

func TestResolve_DefaultFacingModeIsUser(t *testing.T) {
	// facingMode未指定はフロントカメラとして扱う
	enumerator := NewMockEnumerator(
		MockDevice{Name: "back0", FrontFacing: false},
		MockDevice{Name: "front0", FrontFacing: true},
	)

	capturer, isFront, err := Resolve(enumerator, "", "", NewLogEventsHandler())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	mock := capturer.(*MockCapturer)
	if mock.DeviceName() != "front0" {
		t.Errorf("Expected device front0, got %s", mock.DeviceName())
	}

	if !isFront {
		t.Error("Expected isFront to be true")
	}
}

func TestResolve_UnrecognizedFacingModeIsUser(t *testing.T) {
	enumerator := NewMockEnumerator(
		MockDevice{Name: "back0", FrontFacing: false},
		MockDevice{Name: "front0", FrontFacing: true},
	)

	capturer, isFront, err := Resolve(enumerator, "", "sideways", NewLogEventsHandler())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	mock := capturer.(*MockCapturer)
	if mock.DeviceName() != "front0" {
		t.Errorf("Expected device front0, got %s", mock.DeviceName())
	}

	if !isFront {
		t.Error("Expected isFront to be true")
	}
}

func TestResolve_FacingModeMatchNeverReturnsOpposite(t *testing.T) {
	// facingMode一致のデバイスが存在する限り、反対向きのデバイスは返さない
	enumerator := NewMockEnumerator(
		MockDevice{Name: "back0", FrontFacing: false},
		MockDevice{Name: "front0", FrontFacing: true, FailCreate: true},
		MockDevice{Name: "front1", FrontFacing: true},
	)

	capturer, isFront, err := Resolve(enumerator, "", "user", NewLogEventsHandler())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	mock := capturer.(*MockCapturer)
	if mock.DeviceName() != "front1" {
		t.Errorf("Expected device front1, got %s", mock.DeviceName())
	}

	if !isFront {
		t.Error("Expected isFront to be true")
	}
}

func TestResolve_ExplicitIDFailedFallsBack(t *testing.T) {
	// シナリオ: {deviceId: "camX"} でcamXの生成が失敗、デフォルトfacingMode
	// camX(front)は失敗扱い、段階2はフロントを探すがcamY(back)は一致しない
	// 段階3のフォールバックでcamYが返る
	enumerator := NewMockEnumerator(
		MockDevice{Name: "camX", FrontFacing: true, FailCreate: true},
		MockDevice{Name: "camY", FrontFacing: false},
	)

	capturer, isFront, err := Resolve(enumerator, "camX", "", NewLogEventsHandler())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	mock := capturer.(*MockCapturer)
	if mock.DeviceName() != "camY" {
		t.Errorf("Expected fallback device camY, got %s", mock.DeviceName())
	}

	if isFront {
		t.Error("Expected isFront to be false for camY")
	}
}

func TestResolve_ExplicitIDNotRetried(t *testing.T) {
	// 明示IDの生成失敗後、同じデバイスを段階2以降で再試行しない
	enumerator := NewMockEnumerator(
		MockDevice{Name: "camX", FrontFacing: true, FailCreate: true},
		MockDevice{Name: "front1", FrontFacing: true},
	)

	capturer, _, err := Resolve(enumerator, "camX", "user", NewLogEventsHandler())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	mock := capturer.(*MockCapturer)
	if mock.DeviceName() != "front1" {
		t.Errorf("Expected device front1, got %s", mock.DeviceName())
	}
}

func TestResolve_AllQueriesFailStillResolves(t *testing.T) {
	// 全デバイスの向き照会が失敗しても、生成可能なデバイスがあれば解決できる
	enumerator := NewMockEnumerator(
		MockDevice{Name: "cam0", FailQuery: true, FailCreate: true},
		MockDevice{Name: "cam1", FailQuery: true},
	)

	capturer, isFront, err := Resolve(enumerator, "", "user", NewLogEventsHandler())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	mock := capturer.(*MockCapturer)
	if mock.DeviceName() != "cam1" {
		t.Errorf("Expected device cam1, got %s", mock.DeviceName())
	}

	// 向きを照会できないデバイスはリアカメラとして扱われる
	if isFront {
		t.Error("Expected isFront to be false when the facing query fails")
	}
}

func TestResolve_QueryFailureDoesNotAbort(t *testing.T) {
	// 1台の照会失敗で解決全体を中断しない
	enumerator := NewMockEnumerator(
		MockDevice{Name: "cam0", FailQuery: true},
		MockDevice{Name: "front0", FrontFacing: true},
	)

	capturer, isFront, err := Resolve(enumerator, "", "user", NewLogEventsHandler())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	mock := capturer.(*MockCapturer)
	if mock.DeviceName() != "front0" {
		t.Errorf("Expected device front0, got %s", mock.DeviceName())
	}

	if !isFront {
		t.Error("Expected isFront to be true")
	}
}

func TestResolve_NoDevices(t *testing.T) {
	enumerator := NewMockEnumerator()

	_, _, err := Resolve(enumerator, "", "", NewLogEventsHandler())
	if !errors.Is(err, ErrNoCamera) {
		t.Errorf("Expected ErrNoCamera, got %v", err)
	}
}

func TestResolve_AllCreateFail(t *testing.T) {
	enumerator := NewMockEnumerator(
		MockDevice{Name: "cam0", FrontFacing: true, FailCreate: true},
		MockDevice{Name: "cam1", FrontFacing: false, FailCreate: true},
	)

	_, _, err := Resolve(enumerator, "", "", NewLogEventsHandler())
	if !errors.Is(err, ErrNoCamera) {
		t.Errorf("Expected ErrNoCamera, got %v", err)
	}
}

func TestResolve_FallbackReportsEnumeratorFacing(t *testing.T) {
	// 段階3では向きはEnumeratorの報告値が使われる
	enumerator := NewMockEnumerator(
		MockDevice{Name: "back0", FrontFacing: false},
	)

	capturer, isFront, err := Resolve(enumerator, "", "user", NewLogEventsHandler())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	mock := capturer.(*MockCapturer)
	if mock.DeviceName() != "back0" {
		t.Errorf("Expected device back0, got %s", mock.DeviceName())
	}

	if isFront {
		t.Error("Expected isFront to be false")
	}
}

func TestParseFacingMode(t *testing.T) {
	testCases := []struct {
		input    string
		expected FacingMode
	}{
		{"user", FacingModeUser},
		{"environment", FacingModeEnvironment},
		{"", FacingModeUser},
		{"unknown", FacingModeUser},
	}

	for _, tc := range testCases {
		if got := ParseFacingMode(tc.input); got != tc.expected {
			t.Errorf("ParseFacingMode(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}
