package yaiwr

import (
	"bytes"
	"testing"
)

// --- helpers ---------------------------------------------------------------

func wantInt(t *testing.T, v Value, n uint64) {
	t.Helper()
	if v.Tag != VTInt || v.Data.(uint64) != n {
		t.Fatalf("want int %d, got %#v", n, v)
	}
}

func wantBool(t *testing.T, v Value, b bool) {
	t.Helper()
	if v.Tag != VTBool || v.Data.(bool) != b {
		t.Fatalf("want bool %v, got %#v", b, v)
	}
}

func wantKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	if !IsKind(err, kind) {
		t.Fatalf("want %s error, got %v", kind, err)
	}
}

// run compiles src and evaluates it on a fresh machine and root scope.
func run(t *testing.T, src string) (Value, bool, string, error) {
	t.Helper()
	var out bytes.Buffer
	m := NewMachine(&out)
	v, ok, err := m.EvalProgram(compileSrc(t, src), NewRootScope())
	return v, ok, out.String(), err
}

func mustRun(t *testing.T, src string) Value {
	t.Helper()
	v, ok, _, err := run(t, src)
	if err != nil {
		t.Fatalf("eval error for %q: %v", src, err)
	}
	if !ok {
		t.Fatalf("no value for %q", src)
	}
	return v
}

func runErr(t *testing.T, src string, kind ErrorKind) error {
	t.Helper()
	_, _, _, err := run(t, src)
	wantKind(t, err, kind)
	return err
}

// --- arithmetic ------------------------------------------------------------

func Test_VM_Arithmetic_Precedence(t *testing.T) {
	wantInt(t, mustRun(t, "2*3+2"), 8)
	wantInt(t, mustRun(t, "2+3*2"), 8)
	wantInt(t, mustRun(t, "(2+3)*2"), 10)
}

func Test_VM_Addition_Overflow(t *testing.T) {
	wantInt(t, mustRun(t, "18446744073709551614 + 1"), 18446744073709551615)
	err := runErr(t, "18446744073709551615 + 1", ErrNumericOverflow)
	if got := err.Error(); got != "Numeric error: 18446744073709551615 + 1 overflowed!" {
		t.Fatalf("message: %q", got)
	}
}

func Test_VM_Multiplication_Overflow(t *testing.T) {
	wantInt(t, mustRun(t, "4294967296 * 4294967295"), 18446744069414584320)
	runErr(t, "4294967296 * 4294967296", ErrNumericOverflow)
}

func Test_VM_Comparisons(t *testing.T) {
	wantBool(t, mustRun(t, "1 < 2"), true)
	wantBool(t, mustRun(t, "1 > 2"), false)
	wantBool(t, mustRun(t, "3 == 3"), true)
	wantBool(t, mustRun(t, "3 != 3"), false)
	wantBool(t, mustRun(t, "true == false"), false)
	wantBool(t, mustRun(t, "true != false"), true)
}

func Test_VM_Logic(t *testing.T) {
	wantBool(t, mustRun(t, "true && false"), false)
	wantBool(t, mustRun(t, "true || false"), true)
	wantBool(t, mustRun(t, "1 < 2 && 2 < 3"), true)
}

func Test_VM_Type_Mismatch(t *testing.T) {
	runErr(t, "1 + true", ErrTypeMismatch)
	runErr(t, "true + false", ErrTypeMismatch)
	runErr(t, "true < false", ErrTypeMismatch)
	runErr(t, "1 && 2", ErrTypeMismatch)
	runErr(t, "1 == true", ErrTypeMismatch)
	runErr(t, "if (1) { 2 }", ErrTypeMismatch)
}

func Test_VM_Functions_Compare_By_Identity(t *testing.T) {
	wantBool(t, mustRun(t, "fun f() {} fun g() {} f == f"), true)
	wantBool(t, mustRun(t, "fun f() {} fun g() {} f == g"), false)
}

// --- variables -------------------------------------------------------------

func Test_VM_Let_And_Lookup(t *testing.T) {
	wantInt(t, mustRun(t, "let x = 5; x"), 5)
	runErr(t, "y", ErrUndefinedReference)
}

func Test_VM_Let_Leaves_Value(t *testing.T) {
	wantInt(t, mustRun(t, "let x = 5;"), 5)
}

func Test_VM_Assignment(t *testing.T) {
	wantInt(t, mustRun(t, "let x = 1; x = x + 41; x"), 42)
	wantInt(t, mustRun(t, "let a = 0; let b = 0; a = b = 3; a + b"), 6)
	runErr(t, "z = 1;", ErrUndeclaredVariable)
}

func Test_VM_Uninitialised_Let(t *testing.T) {
	runErr(t, "let x; x", ErrUndefinedReference)
	wantInt(t, mustRun(t, "let x; x = 9; x"), 9)

	_, ok, _, err := run(t, "let x;")
	if err != nil || ok {
		t.Fatalf("uninitialised let must leave nothing: ok=%v err=%v", ok, err)
	}
}

func Test_VM_Uninitialised_Let_Does_Not_Consume_Stack(t *testing.T) {
	wantInt(t, mustRun(t, "7; let x;"), 7)
}

// --- println ---------------------------------------------------------------

func Test_VM_Println(t *testing.T) {
	_, ok, out, err := run(t, "println(1 + 1); println(true); fun f(a, b) {} println(f);")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatalf("println must consume its value")
	}
	if want := "2\ntrue\n<fun f/2>\n"; out != want {
		t.Fatalf("want %q, got %q", want, out)
	}
}

// --- functions -------------------------------------------------------------

func Test_VM_Call(t *testing.T) {
	wantInt(t, mustRun(t, "fun add(a, b) { return a + b; } add(1, 2)"), 3)
}

func Test_VM_Call_Arity_Mismatch(t *testing.T) {
	err := runErr(t, "fun add(a, b) { return a + b; } add(1)", ErrFunctionArgumentsMismatch)
	want := "Unexpected number of function arguments. Function 'add' expected 2 but got 1 arguments"
	if err.Error() != want {
		t.Fatalf("message: %q", err.Error())
	}
}

func Test_VM_Undefined_Function(t *testing.T) {
	runErr(t, "nope(1)", ErrUndefinedFunction)
	runErr(t, "let x = 1; x()", ErrUndefinedFunction)
}

func Test_VM_Function_Duplicate(t *testing.T) {
	runErr(t, "fun f() {} fun f() {}", ErrFunctionDuplicate)
	runErr(t, "let f = 1; fun f() {}", ErrFunctionDuplicate)
}

func Test_VM_Nested_Function_May_Shadow(t *testing.T) {
	src := `
fun f() { return 1; }
fun g() {
  fun f() { return 2; }
  return f();
}
g() + f()`
	wantInt(t, mustRun(t, src), 3)
}

func Test_VM_No_Scope_Leak(t *testing.T) {
	runErr(t, "fun f() { let inner = 1; return inner; } f(); inner", ErrUndefinedReference)
	runErr(t, "fun f(p) { return p; } f(1); p", ErrUndefinedReference)
}

func Test_VM_Closure_Sees_Defining_Scope(t *testing.T) {
	src := `
let x = 1;
fun outer() {
  let x = 2;
  fun g() { return x; }
  return g();
}
outer()`
	wantInt(t, mustRun(t, src), 2)

	lexical := `
let x = 1;
fun f() { return x; }
fun h() { let x = 2; return f(); }
h()`
	wantInt(t, mustRun(t, lexical), 1)
}

func Test_VM_Closure_Sees_Later_Updates(t *testing.T) {
	src := `
let n = 1;
fun get() { return n; }
n = 5;
get()`
	wantInt(t, mustRun(t, src), 5)
}

func Test_VM_Function_Mutates_Outer(t *testing.T) {
	src := `
let count = 0;
fun inc() { count = count + 1; }
inc(); inc(); inc();
count`
	wantInt(t, mustRun(t, src), 3)
}

func Test_VM_Recursion(t *testing.T) {
	src := `
fun sum(i, n, acc) {
  if (i > n) { return acc; }
  return sum(i + 1, n, acc + i);
}
sum(1, 10, 0)`
	wantInt(t, mustRun(t, src), 55)
}

func Test_VM_Max_Call_Depth(t *testing.T) {
	var out bytes.Buffer
	m := NewMachine(&out)
	m.MaxCallDepth = 50
	_, _, err := m.EvalProgram(compileSrc(t, "fun loop(n) { return loop(n + 1); } loop(0)"), NewRootScope())
	wantKind(t, err, ErrEval)
	if m.depth != 0 {
		t.Fatalf("depth must unwind, got %d", m.depth)
	}
}

func Test_VM_Function_Without_Return_Yields_Last_Value(t *testing.T) {
	wantInt(t, mustRun(t, "fun f() { 1 + 1 } f()"), 2)

	_, ok, _, err := run(t, "fun f() { println(1); } f()")
	if err != nil || ok {
		t.Fatalf("want no value, ok=%v err=%v", ok, err)
	}
}

func Test_VM_Bare_Return_Stops_Function(t *testing.T) {
	_, ok, out, err := run(t, "fun f() { println(1); return; println(2); } f()")
	if err != nil || ok {
		t.Fatalf("want no value, ok=%v err=%v", ok, err)
	}
	if out != "1\n" {
		t.Fatalf("statements after return ran: %q", out)
	}
}

func Test_VM_Argument_Without_Value(t *testing.T) {
	runErr(t, "fun f(a) { return a; } fun g() {} f(g())", ErrEval)
}

func Test_VM_Argument_Declarations_Stay_Local(t *testing.T) {
	s := NewRootScope()
	m := NewMachine(&bytes.Buffer{})
	code := []Instruction{
		FunctionDeclaration("id", []string{"a"}, []Instruction{Return([]Instruction{Load("a")})}),
		FunctionCall("id", [][]Instruction{{Push(Int(3)), Declare("t")}}),
	}
	res, err := m.Eval(code, s)
	if err != nil {
		t.Fatal(err)
	}
	wantInt(t, res.Value, 3)
	if s.HasOwn("t") {
		t.Fatalf("declaration inside an argument leaked into the caller scope")
	}
}

func Test_VM_Function_Values(t *testing.T) {
	wantInt(t, mustRun(t, "fun f() { return 4; } let g = f; g()"), 4)
	wantInt(t, mustRun(t, "fun twice(a) { return a * 2; } fun apply(h, v) { return h(v); } apply(twice, 21)"), 42)
}

// --- conditionals ----------------------------------------------------------

func Test_VM_If_Else_Runs_One_Branch(t *testing.T) {
	_, _, out, err := run(t, "if (1 < 2) { println(1); } else { println(2); }")
	if err != nil {
		t.Fatal(err)
	}
	if out != "1\n" {
		t.Fatalf("want only then-branch output, got %q", out)
	}
}

func Test_VM_If_Branch_Value(t *testing.T) {
	wantInt(t, mustRun(t, "if (false) { 1 } else { 2 }"), 2)

	_, ok, _, err := run(t, "if (false) { 1 }")
	if err != nil || ok {
		t.Fatalf("false condition without else leaves nothing: ok=%v err=%v", ok, err)
	}
}

func Test_VM_If_Branch_Declarations_Use_Current_Scope(t *testing.T) {
	wantInt(t, mustRun(t, "if (true) { let y = 3; } y"), 3)
}

func Test_VM_Return_Propagates_Through_Conditionals(t *testing.T) {
	src := `
fun sign(n) {
  if (n == 0) {
    return 0;
  } else if (n > 100) {
    if (n > 1000) { return 3; }
    return 2;
  }
  return 1;
}
sign(0) * 1000 + sign(50) * 100 + sign(500) * 10 + sign(5000)`
	wantInt(t, mustRun(t, src), 0*1000+1*100+2*10+3)
}

func Test_VM_Top_Level_Return(t *testing.T) {
	_, ok, out, err := run(t, "println(1); return 7; println(2);")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || out != "1\n" {
		t.Fatalf("top-level return: ok=%v out=%q", ok, out)
	}
}

func Test_VM_Condition_Without_Value(t *testing.T) {
	runErr(t, "fun g() {} if (g()) { 1 }", ErrEval)
}

// --- raw instruction sequences ---------------------------------------------

func Test_VM_Empty_Stack(t *testing.T) {
	_, err := NewMachine(&bytes.Buffer{}).Eval([]Instruction{Binary(BinAdd)}, NewRootScope())
	wantKind(t, err, ErrEmptyStack)

	_, err = NewMachine(&bytes.Buffer{}).Eval([]Instruction{PrintLn()}, NewRootScope())
	wantKind(t, err, ErrEmptyStack)
}

func Test_VM_Outcome_Kinds(t *testing.T) {
	m := NewMachine(&bytes.Buffer{})
	s := NewRootScope()

	res, err := m.Eval(nil, s)
	if err != nil || res.Kind != OutNone || res.HasValue {
		t.Fatalf("empty sequence: %+v %v", res, err)
	}

	res, err = m.Eval([]Instruction{Push(Int(1)), Push(Int(2))}, s)
	if err != nil || res.Kind != OutValue {
		t.Fatalf("value sequence: %+v %v", res, err)
	}
	wantInt(t, res.Value, 2)

	res, err = m.Eval([]Instruction{Return([]Instruction{Push(Int(9))}), Push(Int(1))}, s)
	if err != nil || res.Kind != OutReturn {
		t.Fatalf("return sequence: %+v %v", res, err)
	}
	wantInt(t, res.Value, 9)
}

func Test_VM_Apply(t *testing.T) {
	s := NewRootScope()
	m := NewMachine(&bytes.Buffer{})
	if _, err := m.Eval(compileSrc(t, "fun add(a, b) { return a + b; }"), s); err != nil {
		t.Fatal(err)
	}
	b, _ := s.Lookup("add")
	v, ok, err := m.Apply(b.Fun, []Value{Int(20), Int(22)})
	if err != nil || !ok {
		t.Fatalf("apply: ok=%v err=%v", ok, err)
	}
	wantInt(t, v, 42)
}
