package builtin

import (
	"context"
	"reflect"
	"testing"

	"github.com/mattjoyce/minibridge/internal/registry"
)

func TestRegisterInstallsSystemNamespace(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	if err := Register(reg, "1.2.3"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	want := []string{"ping", "sleep", "time", "version"}
	if got := reg.Methods("system"); !reflect.DeepEqual(got, want) {
		t.Fatalf("methods = %v, want %v", got, want)
	}
}

func TestPingEchoesParams(t *testing.T) {
	t.Parallel()

	res, err := ping(context.Background(), map[string]any{"n": 1})
	if err != nil {
		t.Fatalf("ping: %v", err)
	}
	if !res.Success || res.Data["pong"] != true {
		t.Errorf("res = %+v", res)
	}
	echo, _ := res.Data["echo"].(map[string]any)
	if echo["n"] != 1 {
		t.Errorf("echo = %v", res.Data["echo"])
	}
}

func TestVersionHandler(t *testing.T) {
	t.Parallel()

	h := versionHandler("9.9.9")
	res, err := h(context.Background(), nil)
	if err != nil || res.Data["version"] != "9.9.9" {
		t.Errorf("res = %+v, err = %v", res, err)
	}
}

func TestSleepValidatesParams(t *testing.T) {
	t.Parallel()

	res, err := sleep(context.Background(), map[string]any{"ms": "soon"})
	if err != nil {
		t.Fatalf("sleep: %v", err)
	}
	if res.Success {
		t.Error("non-numeric ms accepted")
	}

	res, err = sleep(context.Background(), map[string]any{"ms": float64(1)})
	if err != nil || !res.Success {
		t.Errorf("res = %+v, err = %v", res, err)
	}
}
