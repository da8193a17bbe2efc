package lang

// langSpec is a per-language table of tree-sitter node type names used to
// classify statements during discovery and lowering. It is intentionally
// data, not code, so adding or correcting a grammar's node names never
// touches the lowering algorithm in lower.go or discover.go.
type langSpec struct {
	// FuncTypes are node types that introduce a discoverable function.
	FuncTypes map[string]bool
	// NameFields are field-name candidates tried in order to find a
	// function's declared symbol.
	NameFields []string
	// BodyFields are field-name candidates for a function's body block.
	BodyFields []string

	BlockTypes map[string]bool

	IfTypes      map[string]bool
	WhileTypes   map[string]bool
	DoWhileTypes map[string]bool
	ForCTypes    map[string]bool
	ForInTypes   map[string]bool
	SwitchTypes  map[string]bool
	CaseTypes    map[string]bool

	ReturnTypes   map[string]bool
	ThrowTypes    map[string]bool
	BreakTypes    map[string]bool
	ContinueTypes map[string]bool

	TryTypes     map[string]bool
	CatchTypes   map[string]bool
	FinallyTypes map[string]bool

	CallTypes          map[string]bool
	BoolOpTypes        map[string]bool
	TernaryTypes       map[string]bool
	ComprehensionTypes map[string]bool

	CondFields []string
	BodyStmtFields []string
	AltFields  []string
	InitFields []string
	UpdateFields []string
	LabelFields []string
	CalleeFields []string
	ObjectFields []string
}

func set(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}

	return m
}

var commonCondFields = []string{"condition", "value"}
var commonBodyFields = []string{"consequence", "body"}
var commonAltFields = []string{"alternative", "alternate"}
var commonLabelFields = []string{"label"}

var goSpec = &langSpec{
	FuncTypes:  set("function_declaration", "method_declaration", "func_literal"),
	NameFields: []string{"name"},
	BodyFields: []string{"body"},
	BlockTypes: set("block"),

	IfTypes:      set("if_statement"),
	WhileTypes:   set(), // Go expresses while via for_statement with only a condition.
	DoWhileTypes: set(),
	ForCTypes:    set("for_statement"),
	ForInTypes:   set("range_statement"),
	SwitchTypes:  set("switch_statement", "type_switch_statement", "select_statement"),
	CaseTypes:    set("expression_case", "type_case", "default_case", "communication_case"),

	ReturnTypes:   set("return_statement"),
	ThrowTypes:    set(),
	BreakTypes:    set("break_statement"),
	ContinueTypes: set("continue_statement"),

	TryTypes:     set(),
	CatchTypes:   set(),
	FinallyTypes: set(),

	CallTypes:          set("call_expression"),
	BoolOpTypes:        set("&&", "||"),
	TernaryTypes:       set(),
	ComprehensionTypes: set(),

	CondFields:     commonCondFields,
	BodyStmtFields: commonBodyFields,
	AltFields:      commonAltFields,
	InitFields:     []string{"initializer"},
	UpdateFields:   []string{"update"},
	LabelFields:    commonLabelFields,
	CalleeFields:   []string{"function"},
	ObjectFields:   []string{"operand"},
}

var tsSpec = &langSpec{
	FuncTypes: set(
		"function_declaration", "method_definition", "arrow_function",
		"function_expression", "generator_function_declaration",
	),
	NameFields: []string{"name"},
	BodyFields: []string{"body"},
	BlockTypes: set("statement_block"),

	IfTypes:      set("if_statement"),
	WhileTypes:   set("while_statement"),
	DoWhileTypes: set("do_statement"),
	ForCTypes:    set("for_statement"),
	ForInTypes:   set("for_in_statement"),
	SwitchTypes:  set("switch_statement"),
	CaseTypes:    set("switch_case", "switch_default"),

	ReturnTypes:   set("return_statement"),
	ThrowTypes:    set("throw_statement"),
	BreakTypes:    set("break_statement"),
	ContinueTypes: set("continue_statement"),

	TryTypes:     set("try_statement"),
	CatchTypes:   set("catch_clause"),
	FinallyTypes: set("finally_clause"),

	CallTypes:          set("call_expression"),
	BoolOpTypes:        set("&&", "||"),
	TernaryTypes:       set("ternary_expression"),
	ComprehensionTypes: set(),

	CondFields:     commonCondFields,
	BodyStmtFields: commonBodyFields,
	AltFields:      commonAltFields,
	InitFields:     []string{"initializer", "init"},
	UpdateFields:   []string{"update", "increment"},
	LabelFields:    commonLabelFields,
	CalleeFields:   []string{"function"},
	ObjectFields:   []string{"object"},
}

// tsxSpec is the TypeScript spec reused as-is: the TSX grammar is a
// superset that adds JSX node types which never participate in CFG
// construction.
var tsxSpec = tsSpec

var javaSpec = &langSpec{
	FuncTypes:  set("method_declaration", "constructor_declaration", "lambda_expression"),
	NameFields: []string{"name"},
	BodyFields: []string{"body"},
	BlockTypes: set("block"),

	IfTypes:      set("if_statement"),
	WhileTypes:   set("while_statement"),
	DoWhileTypes: set("do_statement"),
	ForCTypes:    set("for_statement"),
	ForInTypes:   set("enhanced_for_statement"),
	SwitchTypes:  set("switch_expression", "switch_statement"),
	CaseTypes:    set("switch_block_statement_group", "switch_rule"),

	ReturnTypes:   set("return_statement"),
	ThrowTypes:    set("throw_statement"),
	BreakTypes:    set("break_statement"),
	ContinueTypes: set("continue_statement"),

	TryTypes:     set("try_statement"),
	CatchTypes:   set("catch_clause"),
	FinallyTypes: set("finally_clause"),

	CallTypes:          set("method_invocation", "object_creation_expression"),
	BoolOpTypes:        set("&&", "||"),
	TernaryTypes:       set("ternary_expression"),
	ComprehensionTypes: set(),

	CondFields:     commonCondFields,
	BodyStmtFields: commonBodyFields,
	AltFields:      commonAltFields,
	InitFields:     []string{"init"},
	UpdateFields:   []string{"update"},
	LabelFields:    commonLabelFields,
	CalleeFields:   []string{"name", "object"},
	ObjectFields:   []string{"object"},
}

var pythonSpec = &langSpec{
	FuncTypes:  set("function_definition"),
	NameFields: []string{"name"},
	BodyFields: []string{"body"},
	BlockTypes: set("block"),

	IfTypes:      set("if_statement", "elif_clause"),
	WhileTypes:   set("while_statement"),
	DoWhileTypes: set(),
	ForCTypes:    set(),
	ForInTypes:   set("for_statement"),
	SwitchTypes:  set("match_statement"),
	CaseTypes:    set("case_clause"),

	ReturnTypes:   set("return_statement"),
	ThrowTypes:    set("raise_statement"),
	BreakTypes:    set("break_statement"),
	ContinueTypes: set("continue_statement"),

	TryTypes:     set("try_statement"),
	CatchTypes:   set("except_clause", "except_group_clause"),
	FinallyTypes: set("finally_clause"),

	CallTypes:          set("call"),
	BoolOpTypes:        set("and", "or"),
	TernaryTypes:       set("conditional_expression"),
	ComprehensionTypes: set("if_clause"),

	CondFields:     commonCondFields,
	BodyStmtFields: commonBodyFields,
	AltFields:      []string{"alternative"},
	InitFields:     nil,
	UpdateFields:   nil,
	LabelFields:    nil,
	CalleeFields:   []string{"function"},
	ObjectFields:   []string{"object"},
}

var rustSpec = &langSpec{
	FuncTypes:  set("function_item", "closure_expression"),
	NameFields: []string{"name"},
	BodyFields: []string{"body"},
	BlockTypes: set("block"),

	IfTypes:      set("if_expression", "if_let_expression"),
	WhileTypes:   set("while_expression", "while_let_expression", "loop_expression"),
	DoWhileTypes: set(),
	ForCTypes:    set(),
	ForInTypes:   set("for_expression"),
	SwitchTypes:  set("match_expression"),
	CaseTypes:    set("match_arm"),

	ReturnTypes:   set("return_expression"),
	ThrowTypes:    set(),
	BreakTypes:    set("break_expression"),
	ContinueTypes: set("continue_expression"),

	TryTypes:     set(),
	CatchTypes:   set(),
	FinallyTypes: set(),

	CallTypes:          set("call_expression", "macro_invocation"),
	BoolOpTypes:        set("&&", "||"),
	TernaryTypes:       set(),
	ComprehensionTypes: set(),

	CondFields:     commonCondFields,
	BodyStmtFields: commonBodyFields,
	AltFields:      commonAltFields,
	InitFields:     nil,
	UpdateFields:   nil,
	LabelFields:    []string{"label"},
	CalleeFields:   []string{"function"},
	ObjectFields:   []string{"value"},
}
