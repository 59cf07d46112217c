package scripting

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// DamageFormula wraps a Lua VM exposing a single scale(stat, skill_power,
// variance) function that turns an attacker's raw stat into final scaling
// damage. Crit and evasion are decided by the caller against the
// deterministic RNG source; this formula only ever sees the variance roll
// already applied, never the RNG itself, so the script cannot introduce
// nondeterminism of its own.
type DamageFormula struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewDamageFormula loads scriptPath and returns a formula backed by it.
// The script must define a global scale(stat, skill_power, variance)
// function; if absent, Scale falls back to a linear default so content
// authors can start with an empty script and iterate.
func NewDamageFormula(scriptPath string, log *zap.Logger) (*DamageFormula, error) {
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	if scriptPath != "" {
		if err := vm.DoFile(scriptPath); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load damage formula %s: %w", scriptPath, err)
		}
	}
	return &DamageFormula{vm: vm, log: log}, nil
}

// Close releases the underlying Lua VM.
func (f *DamageFormula) Close() {
	f.vm.Close()
}

// Scale returns the pre-mitigation damage for an attack: stat is the
// attacker's relevant ATK/MATK, skillPower is the proposal's configured
// multiplier, and variance is a caller-supplied roll already centered on
// 1.0 (see rng.Source.Variance).
func (f *DamageFormula) Scale(stat int32, skillPower float64, variance float64) float64 {
	fn := f.vm.GetGlobal("scale")
	if fn == lua.LNil {
		return float64(stat) * skillPower * variance
	}

	if err := f.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lua.LNumber(stat), lua.LNumber(skillPower), lua.LNumber(variance)); err != nil {
		if f.log != nil {
			f.log.Warn("damage formula script errored, using linear fallback", zap.Error(err))
		}
		f.vm.Pop(1)
		return float64(stat) * skillPower * variance
	}

	ret := f.vm.Get(-1)
	f.vm.Pop(1)

	n, ok := ret.(lua.LNumber)
	if !ok {
		return float64(stat) * skillPower * variance
	}
	return float64(n)
}
