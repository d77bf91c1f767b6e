package kfs

import (
	"io"

	"github.com/mwantia/dfs/binding"
	"github.com/mwantia/dfs/data/errors"
)

type inputChannelOps struct {
	tell  func(ch any) (int64, error)
	seek  func(ch any, offset int64) (int64, error)
	read  func(ch any, p []byte) (int, error)
	close func(ch any) error
}

func resolveInputChannel(r *binding.Resolver) *inputChannelOps {
	return &inputChannelOps{
		tell:  binding.Func[func(any) (int64, error)](r, "Tell"),
		seek:  binding.Func[func(any, int64) (int64, error)](r, "Seek"),
		read:  binding.Func[func(any, []byte) (int, error)](r, "Read"),
		close: binding.Func[func(any) error](r, "Close"),
	}
}

// outputChannelOps is empty: output values are plain io.WriteCloser.
type outputChannelOps struct{}

func resolveOutputChannel(*binding.Resolver) *outputChannelOps {
	return &outputChannelOps{}
}

// InputChannel wraps a readable, seekable channel.
type InputChannel struct {
	b   *Bindings
	raw any
}

// Read reads into p. A read of zero bytes into a non-empty buffer marks
// the end of the file and is reported as io.EOF.
func (ch *InputChannel) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	o := ops(ch.b.inputChannel)
	eof := false
	n, err := binding.Call1(ch.b.invoker, "KfsInputChannel.read", func() (int, error) {
		n, err := o.read(ch.raw, p)
		if err == io.EOF {
			eof = true
			return n, nil
		}
		return n, err
	}, errors.CodeIO)
	if err != nil {
		return n, err
	}
	if n == 0 || eof {
		return n, io.EOF
	}
	return n, nil
}

// Tell returns the current offset.
func (ch *InputChannel) Tell() (int64, error) {
	o := ops(ch.b.inputChannel)
	return binding.Call1(ch.b.invoker, "KfsInputChannel.tell", func() (int64, error) {
		return o.tell(ch.raw)
	}, errors.CodeIO)
}

// SeekTo moves to an absolute offset.
func (ch *InputChannel) SeekTo(offset int64) (int64, error) {
	o := ops(ch.b.inputChannel)
	return binding.Call1(ch.b.invoker, "KfsInputChannel.seek", func() (int64, error) {
		return o.seek(ch.raw, offset)
	}, errors.CodeIO)
}

func (ch *InputChannel) Close() error {
	o := ops(ch.b.inputChannel)
	return binding.Call(ch.b.invoker, "KfsInputChannel.close", func() error {
		return o.close(ch.raw)
	}, errors.CodeIO)
}

// OutputChannel wraps a channel returned by Create.
type OutputChannel struct {
	b *Bindings
	w io.WriteCloser
}

func (b *Bindings) newOutputChannel(raw any) (*OutputChannel, error) {
	w, ok := raw.(io.WriteCloser)
	if !ok {
		return nil, errors.Binding(errors.Newf(errors.CodeInitialization, "output channel of type %T is not writable", raw), "KfsOutputChannel")
	}
	return &OutputChannel{b: b, w: w}, nil
}

func (ch *OutputChannel) Write(p []byte) (int, error) {
	return binding.Call1(ch.b.invoker, "KfsOutputChannel.write", func() (int, error) {
		return ch.w.Write(p)
	}, errors.CodeIO)
}

func (ch *OutputChannel) Close() error {
	return binding.Call(ch.b.invoker, "KfsOutputChannel.close", ch.w.Close, errors.CodeIO)
}
