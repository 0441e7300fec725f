package logging

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/TechCowboy/fastbasic/common"
	"github.com/pterm/pterm"
)

var (
	SuccessColorFG = pterm.FgLightGreen
	SuccessStyleBG = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
	WarnColorFG    = pterm.FgYellow
	WarnStyleBG    = pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	ErrorColorFG   = pterm.FgRed
	ErrorStyleBG   = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	InfoColorFG    = SuccessColorFG
	InfoStyleBG    = SuccessStyleBG
	DebugColorFG   = pterm.FgDarkGray
)

// HereMarker is inserted into a source window at the error column
const HereMarker = "<--- HERE -->"

// windowRadius is the number of characters shown on each side of the marker
const windowRadius = 40

// PrintErrorMessage prints a standard Go error to the console
func PrintErrorMessage(tag string, err error) {
	ErrorStyleBG.Print(tag)
	ErrorColorFG.Println(" " + err.Error())
}

// PrintWarningMessage prints a warning message to the console
func PrintWarningMessage(tag, msg string) {
	WarnStyleBG.Print(tag)
	WarnColorFG.Println(" " + msg)
}

// PrintInfoMessage prints an informational message to the user
func PrintInfoMessage(tag, msg string) {
	InfoStyleBG.Print(tag)
	InfoColorFG.Println(" " + msg)
}

// SourceWindow returns up to 40 characters of text on either side of col with
// the HERE marker between them.  Line terminators are not part of the window.
func SourceWindow(text string, col int) string {
	text = strings.TrimRight(text, "\r\n\x9b")
	if col > len(text) {
		col = len(text)
	} else if col < 0 {
		col = 0
	}

	start, end := 0, len(text)
	if col > windowRadius {
		start = col - windowRadius
	}
	if col+windowRadius < end {
		end = col + windowRadius
	}

	return text[start:col] + HereMarker + text[col:end]
}

// -----------------------------------------------------------------------------
// This section contains all the display functions for the different kinds of
// messages that can be logged.

// LogMessage is implemented by everything the logger can hold and display
type LogMessage interface {
	display()
	isError() bool
}

// CompileMessage is an error or warning about a position in a source file
type CompileMessage struct {
	File      string
	Line, Col int
	Message   string

	// LineText is the full text of the offending line, used to build the
	// source window.  No window is displayed when it is empty.
	LineText string

	IsError bool
}

func (cm *CompileMessage) isError() bool {
	return cm.IsError
}

// Text returns the plain, uncolored first line of the message in the
// conventional `file:line:col: message` form
func (cm *CompileMessage) Text() string {
	if cm.Col < 0 {
		return fmt.Sprintf("%s:%d: %s", cm.File, cm.Line, cm.Message)
	}

	return fmt.Sprintf("%s:%d:%d: %s", cm.File, cm.Line, cm.Col, cm.Message)
}

func (cm *CompileMessage) display() {
	cm.displayBanner()
	fmt.Println(cm.Text())

	if cm.LineText != "" && cm.Col >= 0 {
		window := SourceWindow(cm.LineText, cm.Col)
		before, after := window, ""
		if ndx := strings.Index(window, HereMarker); ndx >= 0 {
			before, after = window[:ndx], window[ndx+len(HereMarker):]
		}

		fmt.Print(before)
		ErrorColorFG.Print(HereMarker)
		fmt.Println(after)
	}
}

// displayBanner displays the banner on top of all compilation messages
func (cm *CompileMessage) displayBanner() {
	fmt.Print("\n-- ")
	kindLen := 0
	if cm.IsError {
		ErrorStyleBG.Print("Syntax Error")
		kindLen += 12
	} else {
		WarnStyleBG.Print("Syntax Warning")
		kindLen += 14
	}

	fmt.Print(" ")

	fileName := filepath.Base(cm.File)
	bannerLen := pterm.GetTerminalWidth() / 2
	if bannerLen > 50 {
		bannerLen = 50
	}
	dashCount := bannerLen - len(fileName) - kindLen - 1
	if dashCount < 1 {
		dashCount = 1
	}

	fmt.Print(strings.Repeat("-", dashCount) + " ")
	InfoColorFG.Println(fileName)
}

// ConfigMessage is an error or warning that is not tied to a source line:
// configuration files, grammar files, output files
type ConfigMessage struct {
	Kind    string
	Message string
	IsError bool
}

func (cm *ConfigMessage) isError() bool {
	return cm.IsError
}

func (cm *ConfigMessage) display() {
	if cm.IsError {
		PrintErrorMessage(cm.Kind+" Error", errors.New(cm.Message))
	} else {
		PrintWarningMessage(cm.Kind+" Warning", cm.Message)
	}
}

const fatalErrorPostlude = `
This is likely a bug in the compiler.`

func displayFatalError(msg string) {
	fmt.Print("\n\n")
	ErrorStyleBG.Print("Fatal Error ")
	ErrorColorFG.Println(msg)
	InfoColorFG.Println(fatalErrorPostlude)
}

func displayDebug(msg string) {
	DebugColorFG.Println(msg)
}

// -----------------------------------------------------------------------------

// displayCompileHeader displays all the compiler information before starting compilation
func displayCompileHeader(file string, optimize bool) {
	fmt.Print("fbc ")
	InfoColorFG.Print("v" + common.FBCVersion)
	fmt.Print(" -- input: ")
	InfoColorFG.Println(file)

	if !optimize {
		fmt.Println("optimizer disabled")
	}
}

// phaseSpinner stores the current phase spinner
var phaseSpinner *pterm.SpinnerPrinter
var currentPhase string
var phaseStartTime time.Time

const maxPhaseLength = len("Optimizing")

// displayBeginPhase displays the beginning of a compilation phase
func displayBeginPhase(phase string) {
	// a phase that was never ended is considered successful
	displayEndPhase(true)

	currentPhase = phase
	phaseText := phase + "..." + strings.Repeat(" ", padding(phase))
	phaseSpinner = pterm.DefaultSpinner.WithStyle(pterm.NewStyle(InfoColorFG))

	phaseSpinner.SuccessPrinter = &pterm.PrefixPrinter{
		MessageStyle: pterm.NewStyle(pterm.FgDefault),
		Prefix: pterm.Prefix{
			Style: SuccessStyleBG,
			Text:  "Done",
		},
	}

	phaseSpinner.FailPrinter = &pterm.PrefixPrinter{
		MessageStyle: pterm.NewStyle(pterm.FgDefault),
		Prefix: pterm.Prefix{
			Style: ErrorStyleBG,
			Text:  "Fail",
		},
	}

	phaseSpinner.Start(phaseText)
	phaseStartTime = time.Now()
}

// displayEndPhase displays the end of a compilation phase
func displayEndPhase(success bool) {
	if phaseSpinner != nil {
		if success {
			phaseSpinner.Success(
				currentPhase+strings.Repeat(" ", padding(currentPhase)),
				fmt.Sprintf("(%.3fs)", time.Since(phaseStartTime).Seconds()),
			)
		} else {
			phaseSpinner.Fail(currentPhase + strings.Repeat(" ", padding(currentPhase)))
		}

		phaseSpinner = nil
	}
}

func padding(phase string) int {
	if len(phase) > maxPhaseLength {
		return 2
	}

	return maxPhaseLength - len(phase) + 2
}

// displayCompilationFinished displays a compilation finished message
func displayCompilationFinished(success bool, errorCount, warningCount int) {
	fmt.Print("\n")

	if success {
		SuccessColorFG.Print("All done! ")
	} else {
		ErrorColorFG.Print("Oh no! ")
	}

	fmt.Print("(")

	switch errorCount {
	case 0:
		SuccessColorFG.Print(0)
		fmt.Print(" errors, ")
	case 1:
		ErrorColorFG.Print(1)
		fmt.Print(" error, ")
	default:
		ErrorColorFG.Print(errorCount)
		fmt.Print(" errors, ")
	}

	switch warningCount {
	case 0:
		SuccessColorFG.Print(0)
		fmt.Println(" warnings)")
	case 1:
		WarnColorFG.Print(1)
		fmt.Println(" warning)")
	default:
		WarnColorFG.Print(warningCount)
		fmt.Println(" warnings)")
	}
}
