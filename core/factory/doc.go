// Package factory provides a small generic registry used to instantiate
// pluggable components (solver strategies, metric sinks) from configuration.
// Components are defined by a type string and a map of raw settings;
// factories decode the settings into typed structs with Decode.
//
//	reg := factory.NewRegistry[solver.Solver]()
//	reg.Register("fixed-order", func(conf map[string]any) (solver.Solver, error) {
//	    var c fixedOrderConf
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return newFixedOrder(c), nil
//	})
//	s, err := reg.Create(factory.ModuleConfig{Type: "fixed-order"})
package factory
