package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

const (
	errnoBadf = 8          // WASI errno EBADF
	badFD     = 0xFFFFFFFF // -1 as uint32
)

var i32 = []api.ValueType{api.ValueTypeI32}

// hostStub is a host function that ruby.wasm builds linked through the
// component adapter import next to WASI. Functions with a result write ret.
type hostStub struct {
	name    string
	params  []api.ValueType
	results []api.ValueType
	ret     uint64
}

var adapterStubs = []hostStub{
	{name: "reset_adapter_state"},
	{name: "adapter_close_badfd", params: i32, results: i32, ret: errnoBadf},
	{name: "adapter_open_badfd", params: i32, results: i32, ret: badFD},
}

// instantiateWASI registers wasi_snapshot_preview1 in r, extended with the
// adapter stubs so plain and adapted Ruby builds both link.
func instantiateWASI(ctx context.Context, r wazero.Runtime) (api.Module, error) {
	builder := r.NewHostModuleBuilder(wasi_snapshot_preview1.ModuleName)
	wasi_snapshot_preview1.NewFunctionExporter().ExportFunctions(builder)

	for _, s := range adapterStubs {
		ret := s.ret
		fn := func(_ context.Context, _ api.Module, stack []uint64) {}
		if len(s.results) > 0 {
			fn = func(_ context.Context, _ api.Module, stack []uint64) {
				stack[0] = ret
			}
		}
		builder = builder.NewFunctionBuilder().
			WithGoModuleFunction(api.GoModuleFunc(fn), s.params, s.results).
			Export(s.name)
	}

	return builder.Instantiate(ctx)
}

// foreignImports lists the functions compiled imports from modules other
// than WASI, as "module.name".
func foreignImports(compiled wazero.CompiledModule) []string {
	var out []string
	for _, def := range compiled.ImportedFunctions() {
		mod, name, ok := def.Import()
		if !ok || mod == wasi_snapshot_preview1.ModuleName {
			continue
		}
		out = append(out, fmt.Sprintf("%s.%s", mod, name))
	}
	sort.Strings(out)
	return out
}

func describeImports(names []string) string {
	const max = 5
	if len(names) > max {
		return strings.Join(names[:max], ", ") + fmt.Sprintf(" and %d more", len(names)-max)
	}
	return strings.Join(names, ", ")
}
