package ast

// Visitor receives decoded commands, one method call per command.
//
// Implementations usually embed BaseVisitor and override only the methods
// they care about:
//
//	type assertCounter struct {
//	    ast.BaseVisitor
//	    n int
//	}
//
//	func (c *assertCounter) VisitAssert(*ast.Assert) error {
//	    c.n++
//	    return nil
//	}
//
// A non-nil error returned from a Visit method is passed back unchanged by
// the parser call that dispatched the command.
type Visitor interface {
	VisitAssert(*Assert) error
	VisitCheckSat(*CheckSat) error
	VisitCheckSatAssuming(*CheckSatAssuming) error
	VisitDeclareConst(*DeclareConst) error
	VisitDeclareDatatype(*DeclareDatatype) error
	VisitDeclareDatatypes(*DeclareDatatypes) error
	VisitDeclareFun(*DeclareFun) error
	VisitDeclareSort(*DeclareSort) error
	VisitDefineFun(*DefineFun) error
	VisitDefineFunRec(*DefineFunRec) error
	VisitDefineFunsRec(*DefineFunsRec) error
	VisitDefineSort(*DefineSort) error
	VisitEcho(*Echo) error
	VisitExit(*Exit) error
	VisitGetAssertions(*GetAssertions) error
	VisitGetAssignment(*GetAssignment) error
	VisitGetInfo(*GetInfo) error
	VisitGetModel(*GetModel) error
	VisitGetOption(*GetOption) error
	VisitGetProof(*GetProof) error
	VisitGetUnsatAssumptions(*GetUnsatAssumptions) error
	VisitGetUnsatCore(*GetUnsatCore) error
	VisitGetValue(*GetValue) error
	VisitPop(*Pop) error
	VisitPush(*Push) error
	VisitReset(*Reset) error
	VisitResetAssertions(*ResetAssertions) error
	VisitSetInfo(*SetInfo) error
	VisitSetLogic(*SetLogic) error
	VisitSetOption(*SetOption) error
}

// BaseVisitor implements every Visitor method as a no-op success.
type BaseVisitor struct{}

var _ Visitor = BaseVisitor{}

func (BaseVisitor) VisitAssert(*Assert) error                           { return nil }
func (BaseVisitor) VisitCheckSat(*CheckSat) error                       { return nil }
func (BaseVisitor) VisitCheckSatAssuming(*CheckSatAssuming) error       { return nil }
func (BaseVisitor) VisitDeclareConst(*DeclareConst) error               { return nil }
func (BaseVisitor) VisitDeclareDatatype(*DeclareDatatype) error         { return nil }
func (BaseVisitor) VisitDeclareDatatypes(*DeclareDatatypes) error       { return nil }
func (BaseVisitor) VisitDeclareFun(*DeclareFun) error                   { return nil }
func (BaseVisitor) VisitDeclareSort(*DeclareSort) error                 { return nil }
func (BaseVisitor) VisitDefineFun(*DefineFun) error                     { return nil }
func (BaseVisitor) VisitDefineFunRec(*DefineFunRec) error               { return nil }
func (BaseVisitor) VisitDefineFunsRec(*DefineFunsRec) error             { return nil }
func (BaseVisitor) VisitDefineSort(*DefineSort) error                   { return nil }
func (BaseVisitor) VisitEcho(*Echo) error                               { return nil }
func (BaseVisitor) VisitExit(*Exit) error                               { return nil }
func (BaseVisitor) VisitGetAssertions(*GetAssertions) error             { return nil }
func (BaseVisitor) VisitGetAssignment(*GetAssignment) error             { return nil }
func (BaseVisitor) VisitGetInfo(*GetInfo) error                         { return nil }
func (BaseVisitor) VisitGetModel(*GetModel) error                       { return nil }
func (BaseVisitor) VisitGetOption(*GetOption) error                     { return nil }
func (BaseVisitor) VisitGetProof(*GetProof) error                       { return nil }
func (BaseVisitor) VisitGetUnsatAssumptions(*GetUnsatAssumptions) error { return nil }
func (BaseVisitor) VisitGetUnsatCore(*GetUnsatCore) error               { return nil }
func (BaseVisitor) VisitGetValue(*GetValue) error                       { return nil }
func (BaseVisitor) VisitPop(*Pop) error                                 { return nil }
func (BaseVisitor) VisitPush(*Push) error                               { return nil }
func (BaseVisitor) VisitReset(*Reset) error                             { return nil }
func (BaseVisitor) VisitResetAssertions(*ResetAssertions) error         { return nil }
func (BaseVisitor) VisitSetInfo(*SetInfo) error                         { return nil }
func (BaseVisitor) VisitSetLogic(*SetLogic) error                       { return nil }
func (BaseVisitor) VisitSetOption(*SetOption) error                     { return nil }

// FuncVisitor adapts a single function to the Visitor interface: every
// command is passed to Fn.
type FuncVisitor struct {
	Fn func(Command) error
}

func (f FuncVisitor) call(c Command) error {
	if f.Fn == nil {
		return nil
	}
	return f.Fn(c)
}

func (f FuncVisitor) VisitAssert(c *Assert) error                     { return f.call(c) }
func (f FuncVisitor) VisitCheckSat(c *CheckSat) error                 { return f.call(c) }
func (f FuncVisitor) VisitCheckSatAssuming(c *CheckSatAssuming) error { return f.call(c) }
func (f FuncVisitor) VisitDeclareConst(c *DeclareConst) error         { return f.call(c) }
func (f FuncVisitor) VisitDeclareDatatype(c *DeclareDatatype) error   { return f.call(c) }
func (f FuncVisitor) VisitDeclareDatatypes(c *DeclareDatatypes) error { return f.call(c) }
func (f FuncVisitor) VisitDeclareFun(c *DeclareFun) error             { return f.call(c) }
func (f FuncVisitor) VisitDeclareSort(c *DeclareSort) error           { return f.call(c) }
func (f FuncVisitor) VisitDefineFun(c *DefineFun) error               { return f.call(c) }
func (f FuncVisitor) VisitDefineFunRec(c *DefineFunRec) error         { return f.call(c) }
func (f FuncVisitor) VisitDefineFunsRec(c *DefineFunsRec) error       { return f.call(c) }
func (f FuncVisitor) VisitDefineSort(c *DefineSort) error             { return f.call(c) }
func (f FuncVisitor) VisitEcho(c *Echo) error                         { return f.call(c) }
func (f FuncVisitor) VisitExit(c *Exit) error                         { return f.call(c) }
func (f FuncVisitor) VisitGetAssertions(c *GetAssertions) error       { return f.call(c) }
func (f FuncVisitor) VisitGetAssignment(c *GetAssignment) error       { return f.call(c) }
func (f FuncVisitor) VisitGetInfo(c *GetInfo) error                   { return f.call(c) }
func (f FuncVisitor) VisitGetModel(c *GetModel) error                 { return f.call(c) }
func (f FuncVisitor) VisitGetOption(c *GetOption) error               { return f.call(c) }
func (f FuncVisitor) VisitGetProof(c *GetProof) error                 { return f.call(c) }
func (f FuncVisitor) VisitGetUnsatAssumptions(c *GetUnsatAssumptions) error {
	return f.call(c)
}
func (f FuncVisitor) VisitGetUnsatCore(c *GetUnsatCore) error         { return f.call(c) }
func (f FuncVisitor) VisitGetValue(c *GetValue) error                 { return f.call(c) }
func (f FuncVisitor) VisitPop(c *Pop) error                           { return f.call(c) }
func (f FuncVisitor) VisitPush(c *Push) error                         { return f.call(c) }
func (f FuncVisitor) VisitReset(c *Reset) error                       { return f.call(c) }
func (f FuncVisitor) VisitResetAssertions(c *ResetAssertions) error   { return f.call(c) }
func (f FuncVisitor) VisitSetInfo(c *SetInfo) error                   { return f.call(c) }
func (f FuncVisitor) VisitSetLogic(c *SetLogic) error                 { return f.call(c) }
func (f FuncVisitor) VisitSetOption(c *SetOption) error               { return f.call(c) }
