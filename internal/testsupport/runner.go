package testsupport

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const (
	ScenarioHappy            = "happy"
	ScenarioEchoConfig       = "echo_config"
	ScenarioCancel           = "cancel"
	ScenarioCancelExit       = "cancel_exit"
	ScenarioCrash            = "crash"
	ScenarioCrashAfterOutput = "crash_after_output"
	ScenarioNoNewline        = "no_newline"
	ScenarioCRLF             = "crlf"
	ScenarioMultiLine        = "multi_line"
	ScenarioEmptyLine        = "empty_line"
	ScenarioHang             = "hang"
	ScenarioIgnoreStdin      = "ignore_stdin"
	ScenarioArgs             = "args"
	ScenarioEnv              = "env"
)

const (
	// HappySecret is what ScenarioHappy prints.
	HappySecret = "hunter2"
	// CancelExitCode is the silent exit status of ScenarioCancelExit.
	CancelExitCode = 130
	// CrashExitCode is the exit status of ScenarioCrash.
	CrashExitCode = 2
	// CrashMessage is what ScenarioCrash writes to stderr.
	CrashMessage = "picker crashed"
)

// RunScenario plays one fake picker behaviour and returns the exit code
// the helper process should terminate with.
func RunScenario(scenario string, args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) (int, error) {
	var config string
	if scenario != ScenarioIgnoreStdin && scenario != ScenarioHang {
		line, err := readConfig(stdin)
		if err != nil {
			return 1, err
		}
		config = line
	}

	switch scenario {
	case ScenarioHappy:
		return 0, writeString(stdout, HappySecret+"\n")
	case ScenarioEchoConfig:
		return 0, writeString(stdout, config+"\n")
	case ScenarioCancel:
		return 0, nil
	case ScenarioCancelExit:
		return CancelExitCode, nil
	case ScenarioCrash:
		return CrashExitCode, writeString(stderr, CrashMessage+"\n")
	case ScenarioCrashAfterOutput:
		return 3, writeString(stdout, "partial\n")
	case ScenarioNoNewline:
		return 0, writeString(stdout, "s3cret")
	case ScenarioCRLF:
		return 0, writeString(stdout, "pass word\r\nsecond\r\n")
	case ScenarioMultiLine:
		return 0, writeString(stdout, "first\nsecond\n")
	case ScenarioEmptyLine:
		return 0, writeString(stdout, "\n")
	case ScenarioHang:
		time.Sleep(time.Minute)
		return 0, nil
	case ScenarioIgnoreStdin:
		return 0, writeString(stdout, "early\n")
	case ScenarioArgs:
		return 0, writeString(stdout, strings.Join(args, " ")+"\n")
	case ScenarioEnv:
		return 0, writeString(stdout, describeEnv(args)+"\n")
	default:
		return 1, fmt.Errorf("unknown scenario %q", scenario)
	}
}

// readConfig consumes the single configuration line and then waits for
// EOF, failing if the gateway sent more than one line.
func readConfig(stdin io.Reader) (string, error) {
	reader := bufio.NewReader(stdin)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	rest, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	if len(rest) > 0 {
		return "", fmt.Errorf("unexpected input after config line: %q", rest)
	}
	return strings.TrimSuffix(line, "\n"), nil
}

// describeEnv renders each named variable as name=value, or name! when
// it is not set.
func describeEnv(names []string) string {
	fields := make([]string, 0, len(names))
	for _, name := range names {
		value, ok := os.LookupEnv(name)
		if !ok {
			fields = append(fields, name+"!")
			continue
		}
		fields = append(fields, name+"="+value)
	}
	return strings.Join(fields, " ")
}

func writeString(out io.Writer, value string) error {
	_, err := io.WriteString(out, value)
	return err
}
