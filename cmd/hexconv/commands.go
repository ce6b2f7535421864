package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/danmuck/hexrelay/internal/protocol"
	"github.com/danmuck/hexrelay/internal/protocol/frame"
	"github.com/urfave/cli/v3"
)

// New builds the hexconv command tree writing results to w.
func New(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:   "hexconv",
		Usage:  "convert and decode hex frame protocol fields",
		Writer: w,
		Commands: []*cli.Command{
			convertCommand(w),
			hexToCommand(w),
			splitCommand(w),
			extractCommand(w),
			decodeCommand(w),
		},
	}
}

func endianFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "endian",
		Aliases: []string{"e"},
		Value:   "big",
		Usage:   "byte order: big or little",
	}
}

func convertCommand(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "convert a numeral between hex, dec and bin",
		ArgsUsage: "<value>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "from", Aliases: []string{"f"}, Value: "hex", Usage: "source base"},
			&cli.StringFlag{Name: "to", Aliases: []string{"t"}, Value: "dec", Usage: "target base"},
			&cli.IntFlag{Name: "padding", Aliases: []string{"p"}, Value: protocol.DefaultBytePadding, Usage: "bits per byte group for bin output"},
			endianFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			value, err := requireArg(cmd, 0, "value")
			if err != nil {
				return err
			}
			source, err := protocol.ParseBase(cmd.String("from"))
			if err != nil {
				return err
			}
			target, err := protocol.ParseBase(cmd.String("to"))
			if err != nil {
				return err
			}
			endian, err := protocol.ParseEndian(cmd.String("endian"))
			if err != nil {
				return err
			}
			out, err := protocol.ConvertBase(value, source, target, protocol.ConvertOptions{
				Endian:      endian,
				BytePadding: int(cmd.Int("padding")),
			})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(w, out)
			return err
		},
	}
}

func hexToCommand(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "hexto",
		Usage:     "decode a hex field as u8|s8|u16|s16|u32|s32|ascii|array",
		ArgsUsage: "<format> <hex>",
		Flags:     []cli.Flag{endianFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			rawFormat, err := requireArg(cmd, 0, "format")
			if err != nil {
				return err
			}
			hex, err := requireArg(cmd, 1, "hex")
			if err != nil {
				return err
			}
			format, err := protocol.ParseFormat(rawFormat)
			if err != nil {
				return err
			}
			endian, err := protocol.ParseEndian(cmd.String("endian"))
			if err != nil {
				return err
			}
			v, err := protocol.HexTo(format, hex, protocol.DecodeOptions{Endian: endian})
			if err != nil {
				return err
			}
			switch format {
			case protocol.FormatArray:
				parts := make([]string, len(v.Bytes))
				for i, b := range v.Bytes {
					parts[i] = fmt.Sprint(b)
				}
				_, err = fmt.Fprintf(w, "[%s]\n", strings.Join(parts, ","))
			case protocol.FormatASCII:
				_, err = fmt.Fprintln(w, v.Text)
			default:
				_, err = fmt.Fprintln(w, v.Int)
			}
			return err
		},
	}
}

func splitCommand(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "split",
		Usage:     "print every complete frame in a hex stream, one per line",
		ArgsUsage: "<stream>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			stream, err := requireArg(cmd, 0, "stream")
			if err != nil {
				return err
			}
			for _, f := range frame.SplitPackets(stream) {
				if _, err := fmt.Fprintln(w, f); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func extractCommand(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     "print the id and data fields of one frame",
		ArgsUsage: "<frame>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			f, err := requireArg(cmd, 0, "frame")
			if err != nil {
				return err
			}
			seg, err := frame.ExtractHexSegments(f)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(w, "id=%s data=%s\n", seg.ID, seg.Data)
			return err
		},
	}
}

func decodeCommand(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Usage:     "split a hex stream and print each decoded frame as a JSON line",
		ArgsUsage: "<stream>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			stream, err := requireArg(cmd, 0, "stream")
			if err != nil {
				return err
			}
			packets, errs := frame.DecodeStream(stream)
			enc := json.NewEncoder(w)
			for _, p := range packets {
				if err := enc.Encode(p); err != nil {
					return err
				}
			}
			if len(errs) > 0 {
				return fmt.Errorf("%d frame(s) failed to decode: %w", len(errs), errs[0])
			}
			return nil
		},
	}
}

func requireArg(cmd *cli.Command, i int, name string) (string, error) {
	if cmd.NArg() <= i {
		return "", fmt.Errorf("%s: missing <%s> argument", cmd.Name, name)
	}
	return cmd.Args().Get(i), nil
}
