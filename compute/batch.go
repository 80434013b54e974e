package compute

import (
	"bytes"
	"fmt"
	"regexp"
	"text/template"
)

// BatchTemplate is the Slurm submission file of every dispatched job:
// one hour wall clock, one array index per job, combined stdout and stderr
// per index. It is fixed policy; only the fields of BatchParams vary.
const BatchTemplate = `#!/bin/bash
#SBATCH -n {{.NumCores}}
#SBATCH --mem={{.MemInGB}}GB
#SBATCH -t 1:00:00
#SBATCH --array=0-{{.LastIndex}}

#SBATCH -o {{.JobName}}-%a.out
#SBATCH -e {{.JobName}}-%a.out

cd {{.DataDir}}
{{.Interpreter}} {{.DataDir}}/{{.Script}} $SLURM_ARRAY_TASK_ID

`

var batchTpl = template.Must(template.New("batch").Parse(BatchTemplate))

// BatchParams are the inputs of RenderBatch.
type BatchParams struct {
	NumCores int
	MemInGB  int
	NumJobs  int
	JobName  string
	// Remote working directory holding the script.
	DataDir string
	// Interpreter command and script file name of the invocation line.
	Interpreter string
	Script      string
}

// LastIndex is the inclusive upper bound of the array range.
func (p BatchParams) LastIndex() int {
	return p.NumJobs - 1
}

// RenderBatch renders the submission file for p.
func RenderBatch(p BatchParams) (string, error) {
	if p.NumJobs < 1 {
		return "", fmt.Errorf("NumJobs must be at least 1, got %d", p.NumJobs)
	}
	var buf bytes.Buffer
	if err := batchTpl.Execute(&buf, p); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// BatchFileName returns the name of the submission file of a job.
func BatchFileName(jobName string) string {
	return jobName + "-batch.sh"
}

var submittedRe = regexp.MustCompile(`Submitted batch job ([0-9]+)`)

// ExtractJobID extracts the scheduler's job id from the output of sbatch.
// Example response:
// Submitted batch job 2
// It returns "" when the output holds no job id.
func ExtractJobID(out string) string {
	m := submittedRe.FindStringSubmatch(out)
	if m == nil {
		return ""
	}
	return m[1]
}
