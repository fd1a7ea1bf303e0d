package uniswapv2

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/fd1az/v2-router/business/routing/app"
	"github.com/fd1az/v2-router/business/routing/domain"
	"github.com/fd1az/v2-router/internal/asset"
)

var _ app.CalldataEncoder = Encoder{}

// Encoder packs swap parameters into Router02 calldata.
type Encoder struct{}

// Encode returns the selector and ABI-encoded arguments of p.
func (Encoder) Encode(p domain.SwapParameters) ([]byte, error) {
	method, ok := routerABI.Methods[p.MethodName]
	if !ok {
		return nil, fmt.Errorf("unknown router method %q", p.MethodName)
	}
	if len(p.Args) != len(method.Inputs) {
		return nil, fmt.Errorf("%s takes %d arguments, got %d", p.MethodName, len(method.Inputs), len(p.Args))
	}

	args := make([]any, len(p.Args))
	for i, in := range method.Inputs {
		v, err := convertArg(in.Type, p.Args[i])
		if err != nil {
			return nil, fmt.Errorf("%s: argument %s: %w", p.MethodName, in.Name, err)
		}
		args[i] = v
	}

	return routerABI.Pack(p.MethodName, args...)
}

func convertArg(t abi.Type, v any) (any, error) {
	switch t.T {
	case abi.UintTy:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("want hex string, got %T", v)
		}
		return hexutil.DecodeBig(s)

	case abi.AddressTy:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("want address string, got %T", v)
		}
		return asset.ParseAddress(s)

	case abi.SliceTy:
		path, ok := v.([]string)
		if !ok || t.Elem.T != abi.AddressTy {
			return nil, fmt.Errorf("want address list, got %T", v)
		}
		out := make([]common.Address, len(path))
		for i, s := range path {
			addr, err := asset.ParseAddress(s)
			if err != nil {
				return nil, err
			}
			out[i] = addr
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unsupported type %s", t)
	}
}
