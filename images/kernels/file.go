package kernels

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// ErrKernelLoad is matched by every error returned from Parse and Load.
var ErrKernelLoad = errors.New("kernel load failed")

// LoadError reports why a kernel file could not be read. It matches
// ErrKernelLoad with errors.Is and unwraps to the underlying cause, which may
// itself wrap ErrInvalidKernel or fs.ErrNotExist.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", ErrKernelLoad, e.Err)
	}
	return fmt.Sprintf("%s: kernel file %s: %v", ErrKernelLoad, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrKernelLoad) succeed without losing the cause chain.
func (e *LoadError) Is(target error) bool { return target == ErrKernelLoad }

// Load reads a kernel file from disk.
//
// Arguments:
// - path: The kernel file.
//
// Returns:
// - The kernel.
// - A *LoadError naming the file.
func Load(path string) (*Kernel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	k, err := Parse(f)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = path
			return nil, le
		}
		return nil, &LoadError{Path: path, Err: err}
	}
	return k, nil
}

// Parse reads the kernel text format: a first whitespace-delimited token
// holding the integer size K, then exactly K*K floating-point tokens in
// row-major order. Any whitespace separates tokens.
//
// Arguments:
// - r: The kernel text.
//
// Returns:
// - The kernel.
// - A *LoadError for unreadable input, a bad size, a malformed weight or a
// wrong number of weights.
func Parse(r io.Reader) (*Kernel, error) {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, &LoadError{Err: err}
		}
		return nil, &LoadError{Err: errors.New("empty kernel file")}
	}
	size, err := strconv.Atoi(sc.Text())
	if err != nil {
		return nil, &LoadError{Err: errors.Wrapf(ErrInvalidKernel, "malformed size %q", sc.Text())}
	}
	if err := ValidateSize(size); err != nil {
		return nil, &LoadError{Err: err}
	}

	weights := make([]float64, 0, size*size)
	for len(weights) < size*size && sc.Scan() {
		w, err := strconv.ParseFloat(sc.Text(), 64)
		if err != nil {
			return nil, &LoadError{Err: errors.Errorf("malformed weight %d %q", len(weights), sc.Text())}
		}
		weights = append(weights, w)
	}
	if err := sc.Err(); err != nil {
		return nil, &LoadError{Err: err}
	}
	if len(weights) < size*size {
		return nil, &LoadError{Err: errors.Errorf("expected %d weights, found %d", size*size, len(weights))}
	}
	if sc.Scan() {
		return nil, &LoadError{Err: errors.Errorf("unexpected token %q after %d weights", sc.Text(), size*size)}
	}

	k, err := New(weights, size)
	if err != nil {
		return nil, &LoadError{Err: err}
	}
	return k, nil
}

// Write emits k in the format read by Parse: the size on the first line,
// then one line per row with each weight formatted as " %.6g".
func Write(w io.Writer, k *Kernel) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, k.size)
	for i := 0; i < k.size; i++ {
		for _, v := range k.weights[i*k.size : (i+1)*k.size] {
			fmt.Fprintf(bw, " %.6g", v)
		}
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}
